package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/metrics"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/storage"
)

// RunHandler processes one run and returns its outputs.
type RunHandler func(ctx context.Context, run *models.Run) (RunOutput, error)

// RunOutput carries the results of a processed run back to the ledger.
type RunOutput struct {
	ChunkCount     int
	TranscriptPath string
	SubtitlePath   string
}

// Worker polls the run ledger and processes queued runs one at a time.
type Worker struct {
	runRepo    *storage.RunRepository
	handler    RunHandler
	met        *metrics.Metrics
	interval   time.Duration
	maxRetries int
	stop       chan struct{}
	wg         sync.WaitGroup
}

// NewWorker creates a new worker. The metrics argument may be nil.
func NewWorker(runRepo *storage.RunRepository, handler RunHandler, met *metrics.Metrics) *Worker {
	return &Worker{
		runRepo:    runRepo,
		handler:    handler,
		met:        met,
		interval:   1 * time.Second,
		maxRetries: 3,
		stop:       make(chan struct{}),
	}
}

// SetInterval sets the polling interval.
func (w *Worker) SetInterval(interval time.Duration) {
	w.interval = interval
}

// SetMaxRetries sets how many times a failed run is requeued before it
// is marked failed for good.
func (w *Worker) SetMaxRetries(n int) {
	w.maxRetries = n
}

// Start begins processing runs.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
	log.Println("Worker started")
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
	log.Println("Worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.processNextRun(ctx)
		}
	}
}

func (w *Worker) processNextRun(ctx context.Context) {
	if w.met != nil {
		if counts, err := w.runRepo.CountByStatus(ctx); err == nil {
			w.met.SetQueueDepth(counts[models.RunStatusQueued])
		}
	}

	run, err := w.runRepo.GetNextQueued(ctx)
	if err != nil {
		log.Printf("Error getting next run: %v", err)
		return
	}
	if run == nil {
		return
	}

	if err := w.runRepo.Start(ctx, run.ID); err != nil {
		log.Printf("Error starting run %s: %v", run.ID, err)
		return
	}

	log.Printf("Processing run %s (source: %s, model: %s)", run.ID, run.Source, run.Model)
	if w.met != nil {
		w.met.RecordRunStarted()
	}
	started := time.Now()

	out, err := w.handler(ctx, run)
	if err != nil {
		log.Printf("Run %s failed: %v", run.ID, err)
		if w.met != nil {
			w.met.RecordRunFailed(time.Since(started).Seconds())
		}
		w.handleRunFailure(ctx, run, err)
		return
	}

	if err := w.runRepo.Complete(ctx, run.ID, out.ChunkCount, out.TranscriptPath, out.SubtitlePath); err != nil {
		log.Printf("Error completing run %s: %v", run.ID, err)
		return
	}
	if w.met != nil {
		w.met.RecordRunCompleted(time.Since(started).Seconds())
		w.met.RecordChunksTranscribed(out.ChunkCount)
	}

	log.Printf("Run %s completed (%d chunks)", run.ID, out.ChunkCount)
}

func (w *Worker) handleRunFailure(ctx context.Context, run *models.Run, runErr error) {
	if run.RetryCount < w.maxRetries {
		if err := w.runRepo.Fail(ctx, run.ID, runErr.Error()); err != nil {
			log.Printf("Error failing run %s: %v", run.ID, err)
			return
		}
		if err := w.runRepo.Retry(ctx, run.ID); err != nil {
			log.Printf("Error retrying run %s: %v", run.ID, err)
			return
		}
		log.Printf("Run %s queued for retry (attempt %d/%d)", run.ID, run.RetryCount+1, w.maxRetries)
		return
	}
	if err := w.runRepo.Fail(ctx, run.ID, runErr.Error()); err != nil {
		log.Printf("Error failing run %s: %v", run.ID, err)
	}
}

// Submit creates a new queued run.
func (w *Worker) Submit(ctx context.Context, source, model string) (*models.Run, error) {
	run := &models.Run{
		Source: source,
		Model:  model,
	}
	if err := w.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}
	log.Printf("Run %s submitted (source: %s, model: %s)", run.ID, source, model)
	return run, nil
}
