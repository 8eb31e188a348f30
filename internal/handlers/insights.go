// insights.go handles AI insight generation HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
	"github.com/Lumio-Labs/video-insights-api/internal/services/worker"
)

// CreateInsight queues AI insight generation for a video.
// POST /api/v1/videos/:id/insights
//
// Request body:
//
//	{
//	  "kind": "summary",            // summary, key_points, flashcards, quiz, sentiment, topics
//	  "model": "gemini-1.5-pro"     // optional: override default model
//	}
//
// Response: the created insight record (status "pending"). Generation
// happens in the background; poll GET /insights/:id for the result.
func (h *Handler) CreateInsight(c *gin.Context) {
	videoID := c.Param("id")

	var req models.CreateInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "kind is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	kind := models.InsightKind(req.Kind)
	if !models.ValidInsightKinds[kind] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_kind",
			Message: "Supported kinds: summary, key_points, flashcards, quiz, sentiment, topics",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !h.Generator.IsConfigured() {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "not_configured",
			Message: "Insight generation is not configured (missing Gemini API key)",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

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

	in := &models.Insight{
		VideoID: videoID,
		Kind:    kind,
		Status:  models.StatusPending,
	}

	if err := h.DB.CreateInsight(c.Request.Context(), in); err != nil {
		log.Printf("❌ Failed to create insight record: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create insight record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	payload, _ := json.Marshal(worker.InsightPayload{
		VideoID:   videoID,
		InsightID: in.ID,
		Kind:      req.Kind,
		Model:     req.Model,
	})

	job := worker.Job{
		ID:        in.ID,
		Type:      worker.JobInsightGeneration,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := h.Worker.Submit(job); err != nil {
		if h.isOwnerRequest(c) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
			defer cancel()
			if err := h.Worker.SubmitBlocking(ctx, job); err == nil {
				c.JSON(http.StatusAccepted, in)
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

	c.JSON(http.StatusAccepted, in)
}

// GetInsightsByVideo returns all insights for a video, newest first.
// GET /api/v1/videos/:id/insights
func (h *Handler) GetInsightsByVideo(c *gin.Context) {
	videoID := c.Param("id")

	insights, err := h.DB.GetInsightsByVideo(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch insights",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if insights == nil {
		insights = []models.Insight{}
	}

	c.JSON(http.StatusOK, insights)
}

// GetInsight retrieves a single insight by ID.
// GET /api/v1/insights/:id
func (h *Handler) GetInsight(c *gin.Context) {
	id := c.Param("id")

	in, err := h.DB.GetInsight(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Insight not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, in)
}

// DeleteInsight removes an insight by ID.
// DELETE /api/v1/insights/:id
func (h *Handler) DeleteInsight(c *gin.Context) {
	id := c.Param("id")

	if err := h.DB.DeleteInsight(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Insight not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Insight deleted"})
}
