// Package handlers contains HTTP handler functions for the API.
//
// Handlers are grouped onto a single Handler struct that holds shared
// dependencies, injected explicitly at startup.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/database"
	"github.com/Lumio-Labs/video-insights-api/internal/models"
	"github.com/Lumio-Labs/video-insights-api/internal/services/insight"
	"github.com/Lumio-Labs/video-insights-api/internal/services/speech"
	"github.com/Lumio-Labs/video-insights-api/internal/services/transcribe"
	"github.com/Lumio-Labs/video-insights-api/internal/services/worker"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	DB          *database.DB
	Worker      *worker.Pool
	Generator   *insight.Generator
	Synthesizer *speech.Synthesizer
	Transcriber *transcribe.Transcriber

	JWTSecret         string
	AdminAPIKey       string
	OwnerAPIKeyID     string
	OwnerAPIKeyPrefix string
	DefaultRateLimit  int
	CaptionLang       string
	TTSLang           string
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(db *database.DB, wp *worker.Pool, gen *insight.Generator,
	synth *speech.Synthesizer, tr *transcribe.Transcriber) *Handler {
	return &Handler{
		DB:          db,
		Worker:      wp,
		Generator:   gen,
		Synthesizer: synth,
		Transcriber: tr,
	}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	dbStatus := "healthy"
	if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Version:  "1.0.0",
		Database: dbStatus,
		Workers:  h.Worker.WorkerCount(),
		Queued:   h.Worker.QueueSize(),
		Gemini:   h.Generator.IsConfigured(),
		Whisper:  h.Transcriber != nil && h.Transcriber.IsConfigured(),
	})
}
