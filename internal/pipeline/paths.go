package pipeline

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Paths carries every filesystem location one run touches. All of them are
// derived from the working directory and the source name, so two runs with
// different working directories never collide.
type Paths struct {
	WorkDir      string
	Base         string // sanitized source name, used to derive everything below
	DownloadsDir string // remote sources land here
	WavPath      string // converted 16kHz mono WAV
	ChunksDir    string // per-chunk audio segments
	FragmentsDir string // per-chunk recognizer outputs
	TextPath     string // final concatenated transcript
	SRTPath      string // final merged subtitles
}

// NewPaths derives the run layout for a source inside workDir.
func NewPaths(workDir, source string) Paths {
	base := sanitizeBase(source)
	transcripts := filepath.Join(workDir, "transcripts")
	return Paths{
		WorkDir:      workDir,
		Base:         base,
		DownloadsDir: filepath.Join(workDir, "downloads"),
		WavPath:      filepath.Join(workDir, "wav", base+".wav"),
		ChunksDir:    filepath.Join(workDir, "chunks", base),
		FragmentsDir: filepath.Join(transcripts, base),
		TextPath:     filepath.Join(transcripts, base+".txt"),
		SRTPath:      filepath.Join(transcripts, base+".srt"),
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// sanitizeBase turns a source path or URL into a filesystem-safe base name.
func sanitizeBase(source string) string {
	name := source

	// For URLs, keep only the last path segment without query or fragment.
	// YouTube watch URLs carry the video ID in the query, so that ID must
	// survive or every video would collapse to the base "watch" and share
	// one work layout.
	videoID := ""
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		if u, err := url.Parse(source); err == nil {
			videoID = u.Query().Get("v")
		}
		name = name[:i]
	}
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if videoID != "" {
		name += "_" + videoID
	}

	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "audio"
	}
	return name
}
