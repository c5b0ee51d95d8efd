package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// AudioFormat describes one audio-only stream of a video.
type AudioFormat struct {
	ItagNo        int
	MimeType      string // "audio/mp4", "audio/webm"
	Bitrate       int    // bps
	ContentLength int64  // bytes
	Quality       string
}

// Extension returns the file extension matching the stream's MIME type.
func (f *AudioFormat) Extension() string {
	return extensionForMime(f.MimeType)
}

func extensionForMime(mimeType string) string {
	if strings.Contains(mimeType, "mp4") {
		return ".m4a"
	}
	if strings.Contains(mimeType, "webm") {
		return ".webm"
	}
	return ".audio"
}

// bestAudioFormat picks the highest-bitrate audio-only format, or nil when
// the video has none.
func bestAudioFormat(formats ytdl.FormatList) *ytdl.Format {
	var target *ytdl.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if target == nil || f.Bitrate > target.Bitrate {
			target = f
		}
	}
	return target
}

// GetAudioFormats lists a video's audio-only formats, best bitrate first.
func (c *Client) GetAudioFormats(videoURL string) ([]AudioFormat, error) {
	video, err := c.client.GetVideo(videoURL)
	if err != nil {
		return nil, err
	}

	var formats []AudioFormat
	for _, f := range video.Formats {
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		formats = append(formats, AudioFormat{
			ItagNo:        f.ItagNo,
			MimeType:      f.MimeType,
			Bitrate:       f.Bitrate,
			ContentLength: f.ContentLength,
			Quality:       f.AudioQuality,
		})
	}

	sort.Slice(formats, func(i, j int) bool {
		return formats[i].Bitrate > formats[j].Bitrate
	})

	return formats, nil
}

// DownloadAudio downloads the highest-bitrate audio-only stream of a video.
// The file is written to outputBase plus the extension matching the chosen
// stream, and that full path is returned. Video metadata is fetched once;
// the same lookup resolves both the stream and its extension. A partial
// file is removed on failure.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, outputBase string) (string, error) {
	video, err := c.client.GetVideo(videoURL)
	if err != nil {
		return "", fmt.Errorf("failed to get video: %w", err)
	}

	target := bestAudioFormat(video.Formats)
	if target == nil {
		return "", fmt.Errorf("no audio formats available for %s", videoURL)
	}
	outputPath := outputBase + extensionForMime(target.MimeType)

	stream, _, err := c.client.GetStreamContext(ctx, video, target)
	if err != nil {
		return "", fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, stream); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("failed to download: %w", err)
	}

	return outputPath, nil
}
