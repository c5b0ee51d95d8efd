// Package fetch downloads remote files over plain HTTP(S) GET.
// It is used for both remote audio sources and whisper model files.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// IsURL reports whether source looks like a remote URL rather than a
// local file path.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ProgressFunc is called with the number of bytes written so far and the
// total size (-1 when unknown).
type ProgressFunc func(current, total int64)

// Downloader fetches files over HTTP.
type Downloader struct {
	client *http.Client
}

// NewDownloader creates a Downloader with the given per-request timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: timeout},
	}
}

// Download fetches url and writes it to destPath, overwriting any existing
// file. A partially written file is removed on failure.
func (d *Downloader) Download(ctx context.Context, url, destPath string) error {
	return d.DownloadWithProgress(ctx, url, destPath, nil)
}

// DownloadWithProgress is Download with an optional progress callback.
func (d *Downloader) DownloadWithProgress(ctx context.Context, url, destPath string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s fetching %s", resp.Status, url)
	}

	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := copyWithProgress(ctx, file, resp.Body, resp.ContentLength, progress); err != nil {
		file.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to download %s: %w", url, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to flush file: %w", err)
	}
	return nil
}

// copyWithProgress copies src to dst, honoring ctx cancellation and
// reporting progress after each write.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress ProgressFunc) error {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw > 0 {
				written += int64(nw)
				if progress != nil {
					progress(written, total)
				}
			}
			if ew != nil {
				return ew
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	return nil
}
