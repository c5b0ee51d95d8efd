package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/storage"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/worker"
)

func newTestHandler(t *testing.T) (*RunHandler, *storage.RunRepository) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := storage.NewRunRepository(db)
	w := worker.NewWorker(repo, func(ctx context.Context, run *models.Run) (worker.RunOutput, error) {
		return worker.RunOutput{}, nil
	}, nil)
	return NewRunHandler(repo, w), repo
}

func doJSON(h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	_ = h(c)
	return rec
}

func TestSubmitValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(h.Submit, http.MethodPost, "/api/runs", `{"model":"base"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing source: status = %d, want 400", rec.Code)
	}

	rec = doJSON(h.Submit, http.MethodPost, "/api/runs", `{"source":"a.mp3","model":"gigantic"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad model: status = %d, want 400", rec.Code)
	}
}

func TestSubmitQueuesRun(t *testing.T) {
	h, repo := newTestHandler(t)

	rec := doJSON(h.Submit, http.MethodPost, "/api/runs", `{"source":"talk.mp3","model":"small"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}

	var run models.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if run.ID == "" || run.Status != models.RunStatusQueued {
		t.Fatalf("response run = %+v", run)
	}

	stored, err := repo.GetByID(context.Background(), run.ID)
	if err != nil || stored == nil {
		t.Fatalf("run not stored: %v", err)
	}
}

func TestSubmitDefaultsModel(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(h.Submit, http.MethodPost, "/api/runs", `{"source":"talk.mp3"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var run models.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if run.Model != "base" {
		t.Fatalf("model = %q, want base", run.Model)
	}
}

func TestListClampsLimit(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, &models.Run{Source: "x.mp3", Model: "base"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rec := doJSON(h.List, http.MethodGet, "/api/runs?limit=-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("negative limit: status = %d, want 200", rec.Code)
	}
	var runs []models.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("negative limit returned %d runs, want the default-limited 3", len(runs))
	}

	rec = doJSON(h.List, http.MethodGet, "/api/runs?limit=2", "", nil)
	runs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit=2 returned %d runs", len(runs))
	}
}

func TestGetNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(h.Get, http.MethodGet, "/api/runs/nope", "", map[string]string{"id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTranscriptServing(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()

	run := &models.Run{Source: "talk.mp3", Model: "base"}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Not completed yet.
	rec := doJSON(h.Transcript, http.MethodGet, "/api/runs/x/transcript", "", map[string]string{"id": run.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("queued run: status = %d, want 409", rec.Code)
	}

	path := filepath.Join(t.TempDir(), "talk.txt")
	if err := os.WriteFile(path, []byte("hello world\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := repo.Complete(ctx, run.ID, 1, path, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	rec = doJSON(h.Transcript, http.MethodGet, "/api/runs/x/transcript", "", map[string]string{"id": run.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "hello world\n" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	// No subtitles recorded.
	rec = doJSON(h.Subtitles, http.MethodGet, "/api/runs/x/subtitles", "", map[string]string{"id": run.ID})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("subtitles: status = %d, want 404", rec.Code)
	}
}

func TestRetryOnlyFailedRuns(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()

	run := &models.Run{Source: "talk.mp3", Model: "base"}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(h.Retry, http.MethodPost, "/api/runs/x/retry", "", map[string]string{"id": run.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("queued run retry: status = %d, want 409", rec.Code)
	}

	if err := repo.Fail(ctx, run.ID, "boom"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	rec = doJSON(h.Retry, http.MethodPost, "/api/runs/x/retry", "", map[string]string{"id": run.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("failed run retry: status = %d, want 200", rec.Code)
	}
	var got models.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != models.RunStatusQueued {
		t.Fatalf("status = %q, want queued", got.Status)
	}
}
