// Package whisper drives the external whisper-cli binary and manages the
// ggml model files it consumes.
package whisper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/fetch"
)

// ValidModels lists the whisper.cpp model names that can be resolved to a
// downloadable ggml file.
var ValidModels = []string{
	"tiny", "base", "small", "medium",
	"large-v1", "large-v2", "large-v3", "large-v3-turbo",
}

// modelSizes maps model names to approximate download sizes, for display.
var modelSizes = map[string]string{
	"tiny":           "75 MiB",
	"base":           "142 MiB",
	"small":          "466 MiB",
	"medium":         "1.5 GiB",
	"large-v1":       "2.9 GiB",
	"large-v2":       "2.9 GiB",
	"large-v3":       "2.9 GiB",
	"large-v3-turbo": "1.5 GiB",
}

// IsValidModel reports whether name is a known model.
func IsValidModel(name string) bool {
	for _, m := range ValidModels {
		if m == name {
			return true
		}
	}
	return false
}

// ModelFileName returns the ggml file name for a model.
func ModelFileName(name string) string {
	return "ggml-" + name + ".bin"
}

// ModelPath returns the canonical local path of a model file.
func ModelPath(modelsDir, name string) string {
	return filepath.Join(modelsDir, ModelFileName(name))
}

// ModelURL returns the HuggingFace download URL for a model.
func ModelURL(name string) string {
	return "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/" + ModelFileName(name)
}

// ModelOption describes one downloadable model preset.
type ModelOption struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	URL        string `json:"url"`
	SizeLabel  string `json:"sizeLabel,omitempty"`
	Downloaded bool   `json:"downloaded"`
	LocalPath  string `json:"localPath,omitempty"`
}

// ListModels returns all known models and whether each is present locally.
func ListModels(modelsDir string) []ModelOption {
	options := make([]ModelOption, 0, len(ValidModels))
	for _, name := range ValidModels {
		opt := ModelOption{
			ID:        name,
			FileName:  ModelFileName(name),
			URL:       ModelURL(name),
			SizeLabel: modelSizes[name],
		}
		path := ModelPath(modelsDir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			opt.Downloaded = true
			opt.LocalPath = path
		}
		options = append(options, opt)
	}
	return options
}

// EnsureModel verifies the model file exists locally, downloading it once
// from HuggingFace when missing. It returns the local model path.
func EnsureModel(ctx context.Context, d *fetch.Downloader, modelsDir, name string) (string, error) {
	if !IsValidModel(name) {
		return "", fmt.Errorf("invalid model name %q, valid models: %s", name, strings.Join(ValidModels, ", "))
	}

	path := ModelPath(modelsDir, name)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	if err := d.Download(ctx, ModelURL(name), path); err != nil {
		return "", fmt.Errorf("failed to download model %q: %w", name, err)
	}
	return path, nil
}
