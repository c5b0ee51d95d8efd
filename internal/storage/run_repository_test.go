package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
)

func newTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	run := &models.Run{Source: "talk.mp3", Model: "small"}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.ID == "" {
		t.Fatal("Create did not assign an ID")
	}
	if run.Status != models.RunStatusQueued {
		t.Fatalf("status = %q, want queued", run.Status)
	}

	got, err := repo.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Source != "talk.mp3" || got.Model != "small" {
		t.Fatalf("GetByID = %+v", got)
	}

	if err := repo.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got, _ = repo.GetByID(ctx, run.ID)
	if got.Status != models.RunStatusRunning || got.StartedAt == nil {
		t.Fatalf("after Start: status=%q startedAt=%v", got.Status, got.StartedAt)
	}

	if err := repo.Complete(ctx, run.ID, 3, "transcripts/talk.txt", "transcripts/talk.srt"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ = repo.GetByID(ctx, run.ID)
	if got.Status != models.RunStatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.ChunkCount != 3 || got.TranscriptPath != "transcripts/talk.txt" {
		t.Fatalf("outputs not recorded: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if !got.IsTerminal() {
		t.Fatal("completed run should be terminal")
	}
}

func TestGetNextQueuedOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := &models.Run{Source: "a.mp3", Model: "base"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second := &models.Run{Source: "b.mp3", Model: "base"}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create: %v", err)
	}

	next, err := repo.GetNextQueued(ctx)
	if err != nil {
		t.Fatalf("GetNextQueued: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("GetNextQueued = %+v, want oldest run %s", next, first.ID)
	}

	if err := repo.Start(ctx, first.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	next, _ = repo.GetNextQueued(ctx)
	if next == nil || next.ID != second.ID {
		t.Fatalf("GetNextQueued after start = %+v, want %s", next, second.ID)
	}
}

func TestGetNextQueuedEmpty(t *testing.T) {
	repo := newTestRepo(t)
	next, err := repo.GetNextQueued(context.Background())
	if err != nil {
		t.Fatalf("GetNextQueued: %v", err)
	}
	if next != nil {
		t.Fatalf("GetNextQueued on empty queue = %+v, want nil", next)
	}
}

func TestFailAndRetry(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	run := &models.Run{Source: "broken.mp3", Model: "tiny"}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Start(ctx, run.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := repo.Fail(ctx, run.ID, "recognize chunk 2: exit status 1"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	got, _ := repo.GetByID(ctx, run.ID)
	if got.Status != models.RunStatusFailed || got.Error == "" {
		t.Fatalf("after Fail: %+v", got)
	}

	if err := repo.Retry(ctx, run.ID); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	got, _ = repo.GetByID(ctx, run.ID)
	if got.Status != models.RunStatusQueued {
		t.Fatalf("after Retry: status = %q, want queued", got.Status)
	}
	if got.RetryCount != 1 {
		t.Fatalf("retry_count = %d, want 1", got.RetryCount)
	}
	if got.Error != "" || got.CompletedAt != nil {
		t.Fatalf("Retry did not clear failure fields: %+v", got)
	}
}

func TestCountByStatus(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, &models.Run{Source: "x.mp3", Model: "base"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	done := &models.Run{Source: "y.mp3", Model: "base"}
	if err := repo.Create(ctx, done); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Complete(ctx, done.ID, 1, "out.txt", ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[models.RunStatusQueued] != 3 || counts[models.RunStatusCompleted] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}
