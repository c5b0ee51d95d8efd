package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for the transcription pipeline and server mode.
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Whisper   WhisperConfig   `yaml:"whisper"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Server    ServerConfig    `yaml:"server"`
	Downloads DownloadsConfig `yaml:"downloads"`
}

// PathsConfig describes the on-disk layout of a working directory.
type PathsConfig struct {
	WorkDir      string `yaml:"work_dir"`      // root for downloads, chunks and transcripts
	ModelsDir    string `yaml:"models_dir"`    // where ggml model files live
	DatabasePath string `yaml:"database_path"` // sqlite run ledger
}

// WhisperConfig describes how the external whisper-cli binary is invoked.
type WhisperConfig struct {
	BinaryPath  string  `yaml:"binary_path"` // path to whisper-cli
	Language    string  `yaml:"language"`    // target language code, e.g. "id", "en"
	Temperature float64 `yaml:"temperature"`
	EmitSRT     bool    `yaml:"emit_srt"` // also produce per-chunk .srt output
}

// PipelineConfig holds chunking and scheduling parameters.
type PipelineConfig struct {
	ChunkSeconds int `yaml:"chunk_seconds"` // length of each chunk in seconds
	Concurrency  int `yaml:"concurrency"`   // chunk workers; 1 means sequential
}

// ChunkDuration returns the chunk length as a time.Duration.
func (p PipelineConfig) ChunkDuration() time.Duration {
	return time.Duration(p.ChunkSeconds) * time.Second
}

// ServerConfig holds HTTP server settings for `whisperact serve`.
type ServerConfig struct {
	Port           int `yaml:"port"`
	PollIntervalMS int `yaml:"poll_interval_ms"` // job queue polling interval
}

// PollInterval returns the queue polling interval as a time.Duration.
func (s ServerConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

// DownloadsConfig holds network settings for audio and model downloads.
type DownloadsConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the download timeout as a time.Duration.
func (d DownloadsConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			WorkDir:      "work",
			ModelsDir:    "models",
			DatabasePath: filepath.Join("work", "whisperact.db"),
		},
		Whisper: WhisperConfig{
			BinaryPath:  filepath.Join("build", "bin", "whisper-cli"),
			Language:    "id",
			Temperature: 0.6,
			EmitSRT:     true,
		},
		Pipeline: PipelineConfig{
			ChunkSeconds: 600,
			Concurrency:  1,
		},
		Server: ServerConfig{
			Port:           8080,
			PollIntervalMS: 1000,
		},
		Downloads: DownloadsConfig{
			TimeoutSeconds: 300,
		},
	}
}

// Load builds a configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence. A .env file in the
// current directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides settings from WHISPERACT_* environment variables.
// A numeric variable that does not parse is an error, not a silent
// fallback to the default.
func (c *Config) applyEnv() error {
	if v := os.Getenv("WHISPERACT_WORK_DIR"); v != "" {
		c.Paths.WorkDir = v
	}
	if v := os.Getenv("WHISPERACT_MODELS_DIR"); v != "" {
		c.Paths.ModelsDir = v
	}
	if v := os.Getenv("WHISPERACT_DB"); v != "" {
		c.Paths.DatabasePath = v
	}
	if v := os.Getenv("WHISPERACT_BIN"); v != "" {
		c.Whisper.BinaryPath = v
	}
	if v := os.Getenv("WHISPERACT_LANGUAGE"); v != "" {
		c.Whisper.Language = v
	}
	if v := os.Getenv("WHISPERACT_CHUNK_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WHISPERACT_CHUNK_SECONDS %q: %w", v, err)
		}
		c.Pipeline.ChunkSeconds = n
	}
	if v := os.Getenv("WHISPERACT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WHISPERACT_CONCURRENCY %q: %w", v, err)
		}
		c.Pipeline.Concurrency = n
	}
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = n
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Paths.WorkDir == "" {
		return fmt.Errorf("paths: work_dir must not be empty")
	}
	if c.Paths.ModelsDir == "" {
		return fmt.Errorf("paths: models_dir must not be empty")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper: binary_path must not be empty")
	}
	if c.Whisper.Language == "" {
		return fmt.Errorf("whisper: language must not be empty")
	}
	if c.Whisper.Temperature < 0 || c.Whisper.Temperature > 1 {
		return fmt.Errorf("whisper: temperature must be between 0 and 1, got %g", c.Whisper.Temperature)
	}
	if c.Pipeline.ChunkSeconds <= 0 {
		return fmt.Errorf("pipeline: chunk_seconds must be positive, got %d", c.Pipeline.ChunkSeconds)
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline: concurrency must be at least 1, got %d", c.Pipeline.Concurrency)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.PollIntervalMS <= 0 {
		return fmt.Errorf("server: poll_interval_ms must be positive, got %d", c.Server.PollIntervalMS)
	}
	if c.Downloads.TimeoutSeconds <= 0 {
		return fmt.Errorf("downloads: timeout_seconds must be positive, got %d", c.Downloads.TimeoutSeconds)
	}
	return nil
}
