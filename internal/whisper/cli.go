package whisper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request describes one transcription of a single audio file.
type Request struct {
	InputPath  string // 16kHz mono WAV file to transcribe
	OutputBase string // output path without extension; whisper-cli appends .txt/.srt
}

// Fragment is the transcript output produced for one Request. Paths point
// at files written by whisper-cli; they are never mutated afterwards.
type Fragment struct {
	TextPath string
	SRTPath  string // empty unless SRT output was requested
}

// Transcriber produces a transcript fragment for a single audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Fragment, error)
}

// CLI invokes the whisper-cli binary from the whisper.cpp project as a
// blocking external process, one call per audio file.
type CLI struct {
	BinaryPath  string
	ModelPath   string
	Language    string
	Temperature float64
	EmitSRT     bool
}

var _ Transcriber = (*CLI)(nil)

// CheckBinary verifies the whisper-cli binary exists at the configured path.
func (c *CLI) CheckBinary() error {
	info, err := os.Stat(c.BinaryPath)
	if err != nil {
		return fmt.Errorf("whisper-cli not found at %s: compile whisper.cpp first", c.BinaryPath)
	}
	if info.IsDir() {
		return fmt.Errorf("whisper-cli path %s is a directory", c.BinaryPath)
	}
	return nil
}

// Transcribe runs whisper-cli on req.InputPath and waits for it to exit.
// Success requires both a zero exit status and a non-empty text output file.
func (c *CLI) Transcribe(ctx context.Context, req Request) (Fragment, error) {
	args := []string{
		"-m", c.ModelPath,
		"-f", req.InputPath,
		"-l", c.Language,
		"--temperature", fmt.Sprintf("%.2f", c.Temperature),
		"-of", req.OutputBase,
		"-otxt",
		"-pp",
	}
	if c.EmitSRT {
		args = append(args, "-osrt")
	}

	cmd := exec.CommandContext(ctx, c.BinaryPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// A canceled context kills the process, and Wait reports the
		// resulting "signal: killed" exit error instead of the context
		// error. Callers need the context error in the chain to tell a
		// killed invocation apart from a genuine recognizer failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Fragment{}, fmt.Errorf("whisper-cli canceled on %s: %w", req.InputPath, ctxErr)
		}
		return Fragment{}, fmt.Errorf("whisper-cli failed on %s: %w\nOutput: %s",
			req.InputPath, err, strings.TrimSpace(string(output)))
	}

	frag := Fragment{TextPath: req.OutputBase + ".txt"}
	info, err := os.Stat(frag.TextPath)
	if err != nil {
		return Fragment{}, fmt.Errorf("whisper-cli exited cleanly but wrote no output file %s", frag.TextPath)
	}
	if info.Size() == 0 {
		return Fragment{}, fmt.Errorf("whisper-cli produced an empty transcript for %s", req.InputPath)
	}

	if c.EmitSRT {
		srtPath := req.OutputBase + ".srt"
		if _, err := os.Stat(srtPath); err == nil {
			frag.SRTPath = srtPath
		}
	}

	return frag, nil
}
