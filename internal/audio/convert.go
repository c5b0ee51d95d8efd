// Package audio wraps ffmpeg/ffprobe for the probing, conversion and
// fixed-duration splitting the transcription pipeline needs.
package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// SupportedFormats lists audio formats that can be converted.
var SupportedFormats = []string{".mp3", ".m4a", ".aac", ".ogg", ".flac", ".wav", ".webm", ".opus"}

// IsSupportedFormat checks if the file extension is a supported audio format.
func IsSupportedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range SupportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// CheckFFmpeg verifies that ffmpeg and ffprobe are on PATH.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: please install ffmpeg to process audio files")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe not found: please install ffmpeg to process audio files")
	}
	return nil
}

// ConvertToWav converts an audio file to WAV (16kHz, mono), the input
// format whisper-cli expects. The output file is overwritten if present.
func ConvertToWav(ctx context.Context, inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: please install ffmpeg to convert audio files")
	}

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// Duration returns the length of an audio file as reported by ffprobe.
func Duration(ctx context.Context, inputPath string) (time.Duration, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, fmt.Errorf("ffprobe not found: please install ffmpeg")
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to probe audio duration: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", strings.TrimSpace(string(output)), err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("audio file has no playable duration: %s", inputPath)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
