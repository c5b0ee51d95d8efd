package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Chunk is one contiguous segment of a source audio file, materialized as
// its own file on disk. Indexes are 1-based and chunks tile the source
// duration with no gap and no overlap.
type Chunk struct {
	Index  int           // 1-based position in the source
	Start  time.Duration // offset of the chunk in the source
	Length time.Duration
	Path   string // extracted segment file
}

// PlanChunks computes the chunk boundaries for a source of the given total
// duration. It returns ceil(total/chunkLen) segments; the last one may be
// shorter but is never empty.
func PlanChunks(total, chunkLen time.Duration) []Chunk {
	if total <= 0 || chunkLen <= 0 {
		return nil
	}

	var chunks []Chunk
	for start := time.Duration(0); start < total; start += chunkLen {
		length := chunkLen
		if start+length > total {
			length = total - start
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks) + 1,
			Start:  start,
			Length: length,
		})
	}
	return chunks
}

// ChunkFileName returns the deterministic file name for a chunk index.
func ChunkFileName(index int) string {
	return fmt.Sprintf("chunk_%03d.wav", index)
}

// Split partitions a WAV file into fixed-duration chunk files inside
// chunksDir. Existing chunk files are overwritten. The source must already
// be in the 16kHz mono WAV format produced by ConvertToWav, so segments can
// be cut without re-encoding.
func Split(ctx context.Context, wavPath, chunksDir string, chunkLen time.Duration) ([]Chunk, error) {
	total, err := Duration(ctx, wavPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(chunksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chunks directory: %w", err)
	}

	chunks := PlanChunks(total, chunkLen)
	for i := range chunks {
		chunks[i].Path = filepath.Join(chunksDir, ChunkFileName(chunks[i].Index))
		if err := extractSegment(ctx, wavPath, chunks[i]); err != nil {
			return nil, err
		}
	}

	return chunks, nil
}

// extractSegment cuts one chunk out of the source with ffmpeg.
func extractSegment(ctx context.Context, wavPath string, c Chunk) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", formatSeconds(c.Start),
		"-t", formatSeconds(c.Length),
		"-i", wavPath,
		"-c", "copy",
		"-y",
		c.Path,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed to extract chunk %d: %w\nOutput: %s", c.Index, err, string(output))
	}

	info, err := os.Stat(c.Path)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("chunk %d was not written: %s", c.Index, c.Path)
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
