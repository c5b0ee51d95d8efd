// Package pipeline sequences the transcription stages for one audio
// source: acquire, split, recognize per chunk, assemble.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/audio"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/config"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/fetch"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/transcript"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/whisper"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/youtube"
)

// Result summarizes a completed run.
type Result struct {
	Model          string
	AudioPath      string
	TranscriptPath string
	SubtitlePath   string // empty when no SRT was produced
	ChunkCount     int
	AudioDuration  time.Duration
	Elapsed        time.Duration
}

// Pipeline executes transcription runs. The stage functions are fields so
// tests can substitute fakes for the ffmpeg- and network-backed stages.
type Pipeline struct {
	cfg        *config.Config
	downloader *fetch.Downloader
	yt         *youtube.Client
	logf       func(format string, args ...any)

	convert        func(ctx context.Context, inputPath, outputPath string) error
	split          func(ctx context.Context, wavPath, chunksDir string, chunkLen time.Duration) ([]audio.Chunk, error)
	ensureModel    func(ctx context.Context, modelsDir, name string) (string, error)
	newTranscriber func(modelPath string) whisper.Transcriber
}

// New creates a Pipeline using the real ffmpeg, HTTP and whisper-cli
// backed stages.
func New(cfg *config.Config) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		downloader: fetch.NewDownloader(cfg.Downloads.Timeout()),
		yt:         youtube.NewClient(),
		logf:       log.Printf,
		convert:    audio.ConvertToWav,
		split:      audio.Split,
	}
	p.ensureModel = func(ctx context.Context, modelsDir, name string) (string, error) {
		return whisper.EnsureModel(ctx, p.downloader, modelsDir, name)
	}
	p.newTranscriber = func(modelPath string) whisper.Transcriber {
		return &whisper.CLI{
			BinaryPath:  cfg.Whisper.BinaryPath,
			ModelPath:   modelPath,
			Language:    cfg.Whisper.Language,
			Temperature: cfg.Whisper.Temperature,
			EmitSRT:     cfg.Whisper.EmitSRT,
		}
	}
	return p
}

// SetLogf redirects progress logging, e.g. into a job's progress record.
func (p *Pipeline) SetLogf(logf func(format string, args ...any)) {
	if logf != nil {
		p.logf = logf
	}
}

// Run transcribes one audio source with the named model. It returns a
// *StageError describing the failing stage on any fatal error; intermediate
// files already produced remain on disk for inspection.
func (p *Pipeline) Run(ctx context.Context, source, model string) (*Result, error) {
	started := time.Now()
	paths := NewPaths(p.cfg.Paths.WorkDir, source)

	p.logf("resolving audio source: %s", source)
	audioPath, err := p.acquire(ctx, source, paths)
	if err != nil {
		return nil, err
	}

	p.logf("ensuring model %q is available", model)
	modelPath, err := p.ensureModel(ctx, p.cfg.Paths.ModelsDir, model)
	if err != nil {
		return nil, stageErr(StageModel, err)
	}

	p.logf("converting %s to 16kHz mono WAV", filepath.Base(audioPath))
	if err := p.convert(ctx, audioPath, paths.WavPath); err != nil {
		return nil, stageErr(StageSplit, err)
	}

	chunkLen := p.cfg.Pipeline.ChunkDuration()
	chunks, err := p.split(ctx, paths.WavPath, paths.ChunksDir, chunkLen)
	if err != nil {
		return nil, stageErr(StageSplit, err)
	}
	if len(chunks) == 0 {
		return nil, stageErr(StageSplit, fmt.Errorf("no chunks produced from %s", audioPath))
	}
	p.logf("split into %d chunk(s) of up to %s", len(chunks), chunkLen)

	tr := p.newTranscriber(modelPath)
	frags, err := p.recognize(ctx, tr, chunks, paths.FragmentsDir)
	if err != nil {
		return nil, err
	}

	p.logf("assembling final transcript")
	textPaths := make([]string, len(frags))
	for i, f := range frags {
		textPaths[i] = f.TextPath
	}
	if err := transcript.Assemble(textPaths, paths.TextPath); err != nil {
		return nil, stageErr(StageAssemble, err)
	}

	result := &Result{
		Model:          model,
		AudioPath:      audioPath,
		TranscriptPath: paths.TextPath,
		ChunkCount:     len(chunks),
		Elapsed:        time.Since(started),
	}
	for _, c := range chunks {
		result.AudioDuration += c.Length
	}

	if srtPaths, offsets, ok := collectSRT(chunks, frags); ok {
		if err := transcript.AssembleSRT(srtPaths, offsets, paths.SRTPath); err != nil {
			return nil, stageErr(StageAssemble, err)
		}
		result.SubtitlePath = paths.SRTPath
	}

	return result, nil
}

// acquire resolves the audio source to a local file, downloading remote
// sources into the run's downloads directory.
func (p *Pipeline) acquire(ctx context.Context, source string, paths Paths) (string, error) {
	switch {
	case youtube.IsYouTubeURL(source):
		base := filepath.Join(paths.DownloadsDir, paths.Base)
		p.logf("downloading YouTube audio to %s", base)
		dest, err := p.yt.DownloadAudio(ctx, source, base)
		if err != nil {
			return "", stageErr(StageDownload, err)
		}
		return dest, nil

	case fetch.IsURL(source):
		dest := filepath.Join(paths.DownloadsDir, paths.Base+remoteExt(source))
		p.logf("downloading audio to %s", dest)
		if err := p.downloader.Download(ctx, source, dest); err != nil {
			return "", stageErr(StageDownload, err)
		}
		return dest, nil

	default:
		if _, err := os.Stat(source); err != nil {
			return "", stageErr(StageSource, fmt.Errorf("audio source not found: %s", source))
		}
		return source, nil
	}
}

// remoteExt guesses a file extension for a remote audio URL.
func remoteExt(url string) string {
	name := url
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && audio.IsSupportedFormat(name) {
		return ext
	}
	return ".mp3"
}

// recognize transcribes all chunks, sequentially by default or on a
// bounded worker pool when concurrency is configured. Results are indexed
// by chunk so final ordering never depends on completion order, and the
// first failing chunk (lowest index) aborts the run.
func (p *Pipeline) recognize(ctx context.Context, tr whisper.Transcriber, chunks []audio.Chunk, fragmentsDir string) ([]whisper.Fragment, error) {
	if err := os.MkdirAll(fragmentsDir, 0755); err != nil {
		return nil, stageErr(StageRecognize, fmt.Errorf("failed to create fragments directory: %w", err))
	}

	workers := p.cfg.Pipeline.Concurrency
	if workers > len(chunks) {
		workers = len(chunks)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		index int
		frag  whisper.Fragment
		err   error
	}

	jobs := make(chan audio.Chunk)
	results := make(chan outcome, len(chunks))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				p.logf("transcribing chunk %d/%d", c.Index, len(chunks))
				outBase := filepath.Join(fragmentsDir, strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path)))
				frag, err := tr.Transcribe(runCtx, whisper.Request{
					InputPath:  c.Path,
					OutputBase: outBase,
				})
				if err != nil {
					cancel()
				}
				results <- outcome{index: c.Index, frag: frag, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range chunks {
			select {
			case jobs <- c:
			case <-runCtx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	frags := make([]whisper.Fragment, len(chunks))
	var failures []outcome
	done := 0
	for o := range results {
		if o.err != nil {
			failures = append(failures, o)
			continue
		}
		frags[o.index-1] = o.frag
		done++
	}

	if len(failures) > 0 {
		// Report the lowest-index failure so the error is deterministic
		// even when chunks run concurrently.
		sort.Slice(failures, func(i, j int) bool { return failures[i].index < failures[j].index })
		for _, f := range failures {
			if !errors.Is(f.err, context.Canceled) {
				return nil, chunkErr(StageRecognize, f.index, f.err)
			}
		}
		f := failures[0]
		return nil, chunkErr(StageRecognize, f.index, f.err)
	}
	if done != len(chunks) {
		return nil, stageErr(StageRecognize, fmt.Errorf("only %d of %d chunks were transcribed", done, len(chunks)))
	}

	return frags, nil
}

// collectSRT gathers per-chunk subtitle fragments and their time offsets.
// SRT assembly only happens when every chunk produced one.
func collectSRT(chunks []audio.Chunk, frags []whisper.Fragment) ([]string, []time.Duration, bool) {
	paths := make([]string, len(frags))
	offsets := make([]time.Duration, len(frags))
	for i, f := range frags {
		if f.SRTPath == "" {
			return nil, nil, false
		}
		paths[i] = f.SRTPath
		offsets[i] = chunks[i].Start
	}
	return paths, offsets, len(frags) > 0
}
