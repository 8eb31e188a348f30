// videos.go handles video ingestion and retrieval HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/middleware"
	"github.com/Lumio-Labs/video-insights-api/internal/models"
	"github.com/Lumio-Labs/video-insights-api/internal/services/captions"
	"github.com/Lumio-Labs/video-insights-api/internal/services/worker"
)

// CreateVideo starts caption extraction for a YouTube video.
// POST /api/v1/videos
//
// Request body:
//
//	{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
//	  or
//	{"video_id": "dQw4w9WgXcQ", "language": "en"}
//
// Response: the created video record (status "pending"). Caption fetching
// happens in the background via the worker pool; clients poll
// GET /videos/:id for progress.
func (h *Handler) CreateVideo(c *gin.Context) {
	var req models.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide either 'url' or 'video_id' in the request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	input := req.URL
	if input == "" {
		input = req.VideoID
	}

	youtubeURL, videoID, err := captions.ParseVideoURL(input)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_url",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Return the existing record instead of re-fetching the same video
	existing, _ := h.DB.GetCompletedVideoByYouTubeID(c.Request.Context(), videoID)
	if existing != nil {
		c.JSON(http.StatusOK, existing)
		return
	}

	var apiKeyID *string
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		apiKeyID = &apiKey.ID
	}

	lang := req.Language
	if lang == "" {
		lang = h.CaptionLang
	}

	v := &models.Video{
		YouTubeURL: youtubeURL,
		YouTubeID:  videoID,
		Language:   lang,
		Status:     models.StatusPending,
		APIKeyID:   apiKeyID,
	}

	if err := h.DB.CreateVideo(c.Request.Context(), v); err != nil {
		log.Printf("❌ Failed to create video record: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create video record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	payload, _ := json.Marshal(worker.VideoPayload{Language: lang})
	job := worker.Job{
		ID:        v.ID,
		Type:      worker.JobVideoProcessing,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := h.Worker.Submit(job); err != nil {
		if h.isOwnerRequest(c) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
			defer cancel()
			if err := h.Worker.SubmitBlocking(ctx, job); err == nil {
				c.JSON(http.StatusAccepted, v)
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

	// 202 Accepted — the work is happening in the background
	c.JSON(http.StatusAccepted, v)
}

// GetVideo retrieves a single video by ID.
// GET /api/v1/videos/:id
func (h *Handler) GetVideo(c *gin.Context) {
	id := c.Param("id")

	v, err := h.DB.GetVideo(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Video not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, v)
}

// ListVideos returns a paginated list of videos.
// GET /api/v1/videos?page=1&per_page=20&status=completed&search=golang&sort_by=created_at&sort_dir=desc
func (h *Handler) ListVideos(c *gin.Context) {
	var params models.VideoListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_params",
			Message: "Invalid query parameters: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Filter by the authenticated API key
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		params.APIKeyID = &apiKey.ID
	}

	videos, total, err := h.DB.ListVideos(c.Request.Context(), params)
	if err != nil {
		log.Printf("❌ Failed to list videos: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to list videos",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Ensure we return an empty array, not null
	if videos == nil {
		videos = []models.Video{}
	}

	perPage := params.PerPage
	if perPage < 1 {
		perPage = 20
	}
	page := params.Page
	if page < 1 {
		page = 1
	}

	c.JSON(http.StatusOK, models.PaginatedResponse[models.Video]{
		Data:       videos,
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	})
}

// DeleteVideo removes a video and its dependent records.
// DELETE /api/v1/videos/:id
func (h *Handler) DeleteVideo(c *gin.Context) {
	id := c.Param("id")

	// Only delete videos owned by the authenticated API key
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		v, err := h.DB.GetVideo(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Video not found",
				Code:    http.StatusNotFound,
			})
			return
		}

		if v.APIKeyID != nil && *v.APIKeyID != apiKey.ID {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "forbidden",
				Message: "You can only delete your own videos",
				Code:    http.StatusForbidden,
			})
			return
		}
	}

	// Remove rendered MP3s before the rows cascade away
	renders, err := h.DB.GetSpeechRendersByVideo(c.Request.Context(), id)
	if err == nil {
		for _, r := range renders {
			if r.Filename != "" {
				if err := h.Synthesizer.Remove(r.Filename); err != nil {
					log.Printf("⚠️  Failed to remove audio file %s: %v", r.Filename, err)
				}
			}
		}
	}

	if err := h.DB.DeleteVideo(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Video not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video deleted"})
}
