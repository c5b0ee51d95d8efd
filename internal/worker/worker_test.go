package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/storage"
)

func newTestRepo(t *testing.T) *storage.RunRepository {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewRunRepository(db)
}

func waitForStatus(t *testing.T, repo *storage.RunRepository, id, status string) *models.Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := repo.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if run != nil && run.Status == status {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached status %q", id, status)
	return nil
}

func TestWorkerProcessesQueuedRun(t *testing.T) {
	repo := newTestRepo(t)

	handler := func(ctx context.Context, run *models.Run) (RunOutput, error) {
		return RunOutput{
			ChunkCount:     2,
			TranscriptPath: "transcripts/" + run.Source + ".txt",
		}, nil
	}

	w := NewWorker(repo, handler, nil)
	w.SetInterval(10 * time.Millisecond)

	run, err := w.Submit(context.Background(), "talk.mp3", "base")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	w.Start(context.Background())
	defer w.Stop()

	got := waitForStatus(t, repo, run.ID, models.RunStatusCompleted)
	if got.ChunkCount != 2 {
		t.Fatalf("chunk_count = %d, want 2", got.ChunkCount)
	}
	if got.TranscriptPath != "transcripts/talk.mp3.txt" {
		t.Fatalf("transcript_path = %q", got.TranscriptPath)
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	repo := newTestRepo(t)

	attempts := 0
	handler := func(ctx context.Context, run *models.Run) (RunOutput, error) {
		attempts++
		return RunOutput{}, errors.New("recognize chunk 1: exit status 1")
	}

	w := NewWorker(repo, handler, nil)
	w.SetInterval(10 * time.Millisecond)
	w.SetMaxRetries(1)

	run, err := w.Submit(context.Background(), "broken.mp3", "tiny")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	w.Start(context.Background())
	defer w.Stop()

	got := waitForStatus(t, repo, run.ID, models.RunStatusFailed)
	if got.Error == "" {
		t.Fatal("failed run has no error message")
	}
	if got.RetryCount != 1 {
		t.Fatalf("retry_count = %d, want 1", got.RetryCount)
	}
	if attempts != 2 {
		t.Fatalf("handler ran %d times, want 2", attempts)
	}
}

func TestWorkerStopIsIdempotentAcrossRuns(t *testing.T) {
	repo := newTestRepo(t)

	handler := func(ctx context.Context, run *models.Run) (RunOutput, error) {
		return RunOutput{ChunkCount: 1}, nil
	}

	w := NewWorker(repo, handler, nil)
	w.SetInterval(10 * time.Millisecond)
	w.Start(context.Background())
	w.Stop()

	// A run submitted after Stop stays queued.
	run, err := w.Submit(context.Background(), "late.mp3", "base")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	got, err := repo.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.RunStatusQueued {
		t.Fatalf("status = %q, want queued after worker stop", got.Status)
	}
}
