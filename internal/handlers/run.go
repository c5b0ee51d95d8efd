package handlers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/storage"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/whisper"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/worker"
)

// RunHandler serves the transcription run API.
type RunHandler struct {
	repo   *storage.RunRepository
	worker *worker.Worker
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(repo *storage.RunRepository, w *worker.Worker) *RunHandler {
	return &RunHandler{repo: repo, worker: w}
}

type submitRequest struct {
	Source string `json:"source"`
	Model  string `json:"model"`
}

// Submit queues a new transcription run.
func (h *RunHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Source == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "source is required"})
	}
	if req.Model == "" {
		req.Model = "base"
	}
	if !whisper.IsValidModel(req.Model) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown model: " + req.Model})
	}

	run, err := h.worker.Submit(ctx, req.Source, req.Model)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, run)
}

// List returns recent runs, optionally filtered by status.
func (h *RunHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	status := c.QueryParam("status")

	// Non-positive limits would fall through to SQLite as unbounded.
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 500 {
		limit = 500
	}

	var runs []models.Run
	var err error

	if status != "" {
		runs, err = h.repo.ListByStatus(ctx, status, limit)
	} else {
		runs, err = h.repo.ListRecent(ctx, limit)
	}

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if runs == nil {
		runs = []models.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

// Get returns a single run.
func (h *RunHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	run, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	return c.JSON(http.StatusOK, run)
}

// Transcript serves the plain text transcript of a completed run.
func (h *RunHandler) Transcript(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	run, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}
	if run.Status != models.RunStatusCompleted {
		return c.JSON(http.StatusConflict, map[string]string{"error": "run is not completed: " + run.Status})
	}

	data, err := os.ReadFile(run.TranscriptPath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", data)
}

// Subtitles serves the SRT subtitles of a completed run, if any.
func (h *RunHandler) Subtitles(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	run, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}
	if run.Status != models.RunStatusCompleted {
		return c.JSON(http.StatusConflict, map[string]string{"error": "run is not completed: " + run.Status})
	}
	if run.SubtitlePath == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run has no subtitles"})
	}

	data, err := os.ReadFile(run.SubtitlePath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.Blob(http.StatusOK, "application/x-subrip", data)
}

// Retry puts a failed run back on the queue.
func (h *RunHandler) Retry(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	run, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}
	if run.Status != models.RunStatusFailed {
		return c.JSON(http.StatusConflict, map[string]string{"error": "only failed runs can be retried"})
	}

	if err := h.repo.Retry(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	run, err = h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, run)
}

// Delete removes a run from the ledger.
func (h *RunHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	run, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}

// Stats returns run counts per status.
func (h *RunHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.repo.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, counts)
}
