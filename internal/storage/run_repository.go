package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
)

// RunRepository is the data access layer for transcription runs.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, source, model, status, chunk_count, transcript_path,
	subtitle_path, error, retry_count, created_at, started_at, completed_at`

// Create inserts a new run. An empty ID is filled with a fresh UUID and
// an empty status defaults to queued.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = models.RunStatusQueued
	}
	run.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Model, run.Status, run.ChunkCount,
		run.TranscriptPath, run.SubtitlePath, run.Error, run.RetryCount,
		run.CreatedAt, run.StartedAt, run.CompletedAt)
	return err
}

// GetByID returns the run with the given ID, or nil if it does not exist.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// GetNextQueued returns the oldest queued run, or nil when the queue is empty.
func (r *RunRepository) GetNextQueued(ctx context.Context) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT 1`, models.RunStatusQueued)
	return scanRun(row)
}

// Start marks a run as running.
func (r *RunRepository) Start(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, started_at = ? WHERE id = ?`,
		models.RunStatusRunning, now, id)
	return err
}

// Complete marks a run as completed and records its outputs.
func (r *RunRepository) Complete(ctx context.Context, id string, chunkCount int, transcriptPath, subtitlePath string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, chunk_count = ?, transcript_path = ?,
			subtitle_path = ?, completed_at = ?
		WHERE id = ?`,
		models.RunStatusCompleted, chunkCount, transcriptPath, subtitlePath, now, id)
	return err
}

// Fail marks a run as failed and records the error message.
func (r *RunRepository) Fail(ctx context.Context, id string, errorMsg string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		models.RunStatusFailed, errorMsg, now, id)
	return err
}

// Retry puts a failed run back on the queue.
func (r *RunRepository) Retry(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, error = '', retry_count = retry_count + 1,
			started_at = NULL, completed_at = NULL
		WHERE id = ? AND status = ?`,
		models.RunStatusQueued, id, models.RunStatusFailed)
	return err
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]models.Run, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

// ListByStatus returns runs with the given status, newest first.
func (r *RunRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.Run, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Delete removes a run.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

// CountByStatus returns the number of runs per status.
func (r *RunRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunFields(s rowScanner) (*models.Run, error) {
	var run models.Run
	err := s.Scan(&run.ID, &run.Source, &run.Model, &run.Status,
		&run.ChunkCount, &run.TranscriptPath, &run.SubtitlePath,
		&run.Error, &run.RetryCount, &run.CreatedAt,
		&run.StartedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func scanRun(row *sql.Row) (*models.Run, error) {
	run, err := scanRunFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func scanRuns(rows *sql.Rows) ([]models.Run, error) {
	var runs []models.Run
	for rows.Next() {
		run, err := scanRunFields(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
