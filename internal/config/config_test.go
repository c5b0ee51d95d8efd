package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:        "empty work dir",
			mutate:      func(c *Config) { c.Paths.WorkDir = "" },
			expectError: true,
		},
		{
			name:        "empty binary path",
			mutate:      func(c *Config) { c.Whisper.BinaryPath = "" },
			expectError: true,
		},
		{
			name:        "temperature out of range",
			mutate:      func(c *Config) { c.Whisper.Temperature = 1.5 },
			expectError: true,
		},
		{
			name:        "zero chunk duration",
			mutate:      func(c *Config) { c.Pipeline.ChunkSeconds = 0 },
			expectError: true,
		},
		{
			name:        "negative concurrency",
			mutate:      func(c *Config) { c.Pipeline.Concurrency = -2 },
			expectError: true,
		},
		{
			name:        "invalid port",
			mutate:      func(c *Config) { c.Server.Port = 70000 },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whisperact.yaml")

	yaml := `
paths:
  work_dir: /tmp/wa
  models_dir: /tmp/wa/models
whisper:
  binary_path: /opt/whisper/whisper-cli
  language: en
  temperature: 0.4
pipeline:
  chunk_seconds: 300
  concurrency: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Paths.WorkDir != "/tmp/wa" {
		t.Errorf("work_dir = %q, want /tmp/wa", cfg.Paths.WorkDir)
	}
	if cfg.Whisper.Language != "en" {
		t.Errorf("language = %q, want en", cfg.Whisper.Language)
	}
	if cfg.Pipeline.ChunkDuration() != 5*time.Minute {
		t.Errorf("chunk duration = %s, want 5m", cfg.Pipeline.ChunkDuration())
	}
	if cfg.Pipeline.Concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", cfg.Pipeline.Concurrency)
	}
	// Unset fields keep their defaults.
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WHISPERACT_LANGUAGE", "ja")
	t.Setenv("WHISPERACT_CONCURRENCY", "4")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Whisper.Language != "ja" {
		t.Errorf("language = %q, want ja", cfg.Whisper.Language)
	}
	if cfg.Pipeline.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Pipeline.Concurrency)
	}
}

func TestLoadRejectsInvalidEnvNumber(t *testing.T) {
	t.Setenv("WHISPERACT_CONCURRENCY", "four")

	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric WHISPERACT_CONCURRENCY")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
