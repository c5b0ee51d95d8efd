// Package transcript merges per-chunk recognizer outputs into final
// transcript artifacts.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Separator is inserted between fragment contents in the final transcript.
const Separator = "\n"

// Assemble concatenates the fragment files, in the order given, into one
// transcript at destPath. Fragment contents are joined verbatim with
// Separator; nothing is reordered, deduplicated or normalized. The final
// file is written atomically via a temporary file and rename, so a crash
// mid-write never leaves a truncated transcript at destPath.
func Assemble(fragmentPaths []string, destPath string) error {
	var parts []string
	for i, path := range fragmentPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("fragment %d missing at merge time (%s): %w", i+1, path, err)
		}
		parts = append(parts, string(data))
	}

	return writeAtomic(destPath, []byte(strings.Join(parts, Separator)))
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush transcript: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move transcript into place: %w", err)
	}
	return nil
}
