// speech.go handles text-to-speech rendering HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
	"github.com/Lumio-Labs/video-insights-api/internal/services/worker"
)

// CreateSpeechRender queues MP3 synthesis of a video's summary.
// POST /api/v1/videos/:id/speech
//
// Request body (optional):
//
//	{"language": "en"}
//
// Response: the created render record (status "pending"). If the video
// has no summary insight yet, the worker generates one first.
func (h *Handler) CreateSpeechRender(c *gin.Context) {
	videoID := c.Param("id")

	// Body is optional — an empty body means default language
	var req models.CreateSpeechRequest
	_ = c.ShouldBindJSON(&req)

	v, err := h.DB.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Video not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	if v.Status != models.StatusCompleted || v.CaptionText == "" {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "video_not_ready",
			Message: "Video captions are not available yet (status: " + string(v.Status) + ")",
			Code:    http.StatusConflict,
		})
		return
	}

	lang := req.Language
	if lang == "" {
		lang = h.TTSLang
	}

	sr := &models.SpeechRender{
		VideoID:  videoID,
		Language: lang,
		Status:   models.StatusPending,
	}

	if err := h.DB.CreateSpeechRender(c.Request.Context(), sr); err != nil {
		log.Printf("❌ Failed to create speech render record: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create speech render record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	payload, _ := json.Marshal(worker.SpeechPayload{
		VideoID:  videoID,
		RenderID: sr.ID,
		Language: lang,
	})

	job := worker.Job{
		ID:        sr.ID,
		Type:      worker.JobSpeechSynthesis,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := h.Worker.Submit(job); err != nil {
		if h.isOwnerRequest(c) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
			defer cancel()
			if err := h.Worker.SubmitBlocking(ctx, job); err == nil {
				c.JSON(http.StatusAccepted, sr)
				return
			}
		}
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "queue_full",
			Message: "Job queue is full, try again later",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

	c.JSON(http.StatusAccepted, sr)
}

// GetSpeechRender retrieves a single speech render by ID.
// GET /api/v1/speech/:id
func (h *Handler) GetSpeechRender(c *gin.Context) {
	id := c.Param("id")

	sr, err := h.DB.GetSpeechRender(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Speech render not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, sr)
}

// GetSpeechRendersByVideo returns all speech renders for a video.
// GET /api/v1/videos/:id/speech
func (h *Handler) GetSpeechRendersByVideo(c *gin.Context) {
	videoID := c.Param("id")

	renders, err := h.DB.GetSpeechRendersByVideo(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch speech renders",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if renders == nil {
		renders = []models.SpeechRender{}
	}

	c.JSON(http.StatusOK, renders)
}

// DownloadSpeechAudio streams the rendered MP3 as a file download.
// GET /api/v1/speech/:id/download
func (h *Handler) DownloadSpeechAudio(c *gin.Context) {
	id := c.Param("id")

	sr, err := h.DB.GetSpeechRender(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Speech render not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	if sr.Status != models.StatusCompleted || sr.Filename == "" {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "not_ready",
			Message: "Speech render is not completed (status: " + string(sr.Status) + ")",
			Code:    http.StatusConflict,
		})
		return
	}

	path := h.Synthesizer.FilePath(sr.Filename)
	if _, err := os.Stat(path); err != nil {
		log.Printf("❌ Audio file missing for render %s: %v", sr.ID, err)
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "file_missing",
			Message: "Audio file is no longer available",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.FileAttachment(path, sr.Filename)
}

// DeleteSpeechRender removes a render and its MP3 file.
// DELETE /api/v1/speech/:id
func (h *Handler) DeleteSpeechRender(c *gin.Context) {
	id := c.Param("id")

	sr, err := h.DB.GetSpeechRender(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Speech render not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	if sr.Filename != "" {
		if err := h.Synthesizer.Remove(sr.Filename); err != nil {
			log.Printf("⚠️  Failed to remove audio file %s: %v", sr.Filename, err)
		}
	}

	if err := h.DB.DeleteSpeechRender(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Speech render not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Speech render deleted"})
}
