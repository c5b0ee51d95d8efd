package models

import "time"

// Run is one transcription job: a single audio source processed with a
// single model.
type Run struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	Model          string     `json:"model"`
	Status         string     `json:"status"`
	ChunkCount     int        `json:"chunk_count"`
	TranscriptPath string     `json:"transcript_path,omitempty"`
	SubtitlePath   string     `json:"subtitle_path,omitempty"`
	Error          string     `json:"error,omitempty"`
	RetryCount     int        `json:"retry_count"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Run statuses.
const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// IsTerminal reports whether the run has finished, successfully or not.
func (r *Run) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}
