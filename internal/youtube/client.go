// Package youtube resolves YouTube watch URLs to downloadable audio-only
// streams.
package youtube

import (
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// Client wraps the YouTube API client.
type Client struct {
	client youtube.Client
}

// NewClient creates a new YouTube client.
func NewClient() *Client {
	return &Client{
		client: youtube.Client{},
	}
}

// IsYouTubeURL reports whether url points at a YouTube video.
func IsYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com/watch") ||
		strings.Contains(url, "youtube.com/shorts/") ||
		strings.Contains(url, "youtu.be/")
}

// VideoInfo holds the video metadata the pipeline cares about.
type VideoInfo struct {
	ID       string
	Title    string
	Author   string
	Duration time.Duration
}

// GetVideo fetches video metadata.
func (c *Client) GetVideo(url string) (*VideoInfo, error) {
	video, err := c.client.GetVideo(url)
	if err != nil {
		return nil, err
	}

	return &VideoInfo{
		ID:       video.ID,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
	}, nil
}
