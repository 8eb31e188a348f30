// batches.go handles batch video processing endpoints.
//
// Batch processing lets users submit multiple YouTube URLs at once.
// Each URL becomes its own video record, all linked to a single batch
// that provides aggregate status tracking.
package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/middleware"
	"github.com/Lumio-Labs/video-insights-api/internal/models"
	"github.com/Lumio-Labs/video-insights-api/internal/services/captions"
	"github.com/Lumio-Labs/video-insights-api/internal/services/worker"
)

// CreateBatch starts caption extraction for multiple YouTube URLs.
// POST /api/v1/videos/batch
//
// Request body:
//
//	{"urls": ["https://youtube.com/watch?v=abc", "https://youtube.com/watch?v=def"]}
//
// All URLs are validated before any records are created, so an invalid
// URL fails the whole request up front instead of mid-processing.
func (h *Handler) CreateBatch(c *gin.Context) {
	var req models.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide 'urls' array with 1-10 YouTube URLs",
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Enforce the 10-URL limit explicitly (belt + suspenders with the binding tag)
	if len(req.URLs) > 10 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "too_many_urls",
			Message: "Maximum 10 URLs per batch request",
			Code:    http.StatusBadRequest,
		})
		return
	}

	type parsedURL struct {
		fullURL string
		videoID string
	}
	parsed := make([]parsedURL, 0, len(req.URLs))

	for i, url := range req.URLs {
		fullURL, videoID, err := captions.ParseVideoURL(url)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_url",
				Message: fmt.Sprintf("Invalid YouTube URL at index %d: %v", i, err),
				Code:    http.StatusBadRequest,
			})
			return
		}
		parsed = append(parsed, parsedURL{fullURL: fullURL, videoID: videoID})
	}

	batch := &models.Batch{
		Status:     models.StatusPending,
		TotalCount: len(parsed),
	}

	if err := h.DB.CreateBatch(c.Request.Context(), batch); err != nil {
		log.Printf("❌ Failed to create batch: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create batch record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	var apiKeyID *string
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		apiKeyID = &apiKey.ID
	}

	videos := make([]models.Video, 0, len(parsed))

	for _, p := range parsed {
		// Reuse existing caption data so already-processed videos complete
		// immediately without re-fetching.
		existing, _ := h.DB.GetCompletedVideoByYouTubeID(c.Request.Context(), p.videoID)

		var v *models.Video
		var needsProcessing bool

		if existing != nil {
			v = &models.Video{
				YouTubeURL:    p.fullURL,
				YouTubeID:     p.videoID,
				Title:         existing.Title,
				ChannelName:   existing.ChannelName,
				Duration:      existing.Duration,
				Language:      existing.Language,
				CaptionSource: existing.CaptionSource,
				CaptionText:   existing.CaptionText,
				WordCount:     existing.WordCount,
				Status:        models.StatusCompleted,
				BatchID:       &batch.ID,
				APIKeyID:      apiKeyID,
			}
			needsProcessing = false
			log.Printf("♻️  Reusing existing captions for %s", p.videoID)
		} else {
			v = &models.Video{
				YouTubeURL: p.fullURL,
				YouTubeID:  p.videoID,
				Language:   h.CaptionLang,
				Status:     models.StatusPending,
				BatchID:    &batch.ID,
				APIKeyID:   apiKeyID,
			}
			needsProcessing = true
		}

		if err := h.DB.CreateVideo(c.Request.Context(), v); err != nil {
			log.Printf("❌ Failed to create video for %s: %v", p.videoID, err)
			// Continue with remaining URLs — partial success beats total failure
			continue
		}

		if needsProcessing {
			payload, _ := json.Marshal(worker.VideoPayload{Language: h.CaptionLang})
			job := worker.Job{
				ID:        v.ID,
				Type:      worker.JobVideoProcessing,
				Payload:   payload,
				CreatedAt: time.Now(),
			}

			if err := h.Worker.Submit(job); err != nil {
				log.Printf("⚠️  Failed to queue processing job for %s: %v", v.ID, err)
			}
		}

		videos = append(videos, *v)
	}

	c.JSON(http.StatusAccepted, models.BatchResponse{
		Batch:  *batch,
		Videos: videos,
	})
}

// GetBatch retrieves the status of a batch and its videos.
// GET /api/v1/batches/:id
//
// Counts are recalculated from the actual video statuses on every read,
// so a missed worker update never leaves the batch permanently stale.
func (h *Handler) GetBatch(c *gin.Context) {
	id := c.Param("id")

	if err := h.DB.UpdateBatchCounts(c.Request.Context(), id); err != nil {
		log.Printf("⚠️  Failed to update batch counts: %v", err)
		// Non-fatal, continue with potentially stale counts
	}

	batch, err := h.DB.GetBatch(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Batch not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	videos, err := h.DB.GetVideosByBatch(c.Request.Context(), id)
	if err != nil {
		log.Printf("⚠️  Failed to get batch videos: %v", err)
		videos = []models.Video{}
	}

	c.JSON(http.StatusOK, models.BatchResponse{
		Batch:  *batch,
		Videos: videos,
	})
}
