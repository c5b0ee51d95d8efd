package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/version"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/whisper"
)

// HealthHandler serves liveness and model listing endpoints.
type HealthHandler struct {
	modelsDir string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(modelsDir string) *HealthHandler {
	return &HealthHandler{modelsDir: modelsDir}
}

// Health reports service liveness and version.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// Models lists the recognized model names.
func (h *HealthHandler) Models(c echo.Context) error {
	return c.JSON(http.StatusOK, whisper.ListModels(h.modelsDir))
}
