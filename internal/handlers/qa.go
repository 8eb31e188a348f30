// qa.go handles caption-grounded question answering HTTP endpoints.
//
// Q&A is synchronous, unlike insight generation: the client is already
// waiting on an answer, so a poll loop would just add latency. Each
// video gets one session per API key, and prior exchanges are replayed
// to the model for conversational context.
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/middleware"
	"github.com/Lumio-Labs/video-insights-api/internal/models"
	"github.com/Lumio-Labs/video-insights-api/internal/services/insight"
)

// historyLimit bounds how many prior messages are replayed to the model.
const historyLimit = 20

// GetQAHistory returns the Q&A session and messages for a video.
// GET /api/v1/videos/:id/qa
func (h *Handler) GetQAHistory(c *gin.Context) {
	videoID := c.Param("id")

	if _, err := h.DB.GetVideo(c.Request.Context(), videoID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Video not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	var apiKeyID *string
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		apiKeyID = &apiKey.ID
	}

	session, err := h.DB.GetOrCreateQASession(c.Request.Context(), videoID, apiKeyID)
	if err != nil {
		log.Printf("❌ Failed to load Q&A session: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load Q&A session",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	messages, err := h.DB.ListQAMessages(c.Request.Context(), session.ID, 0)
	if err != nil {
		log.Printf("❌ Failed to list Q&A messages: %v", err)
		messages = []models.QAMessage{}
	}
	if messages == nil {
		messages = []models.QAMessage{}
	}

	c.JSON(http.StatusOK, models.QAResponse{
		Session:  *session,
		Messages: messages,
	})
}

// AskQuestion answers a question about a video's captions.
// POST /api/v1/videos/:id/qa
//
// Request body:
//
//	{"question": "What are the main arguments?", "model": "gemini-1.5-pro"}
//
// Response: the assistant's message. Both the question and the answer
// are persisted to the session so follow-up questions have context.
func (h *Handler) AskQuestion(c *gin.Context) {
	videoID := c.Param("id")

	var req models.AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "question is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !h.Generator.IsConfigured() {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "not_configured",
			Message: "Q&A is not configured (missing Gemini API key)",
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

	var apiKeyID *string
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		apiKeyID = &apiKey.ID
	}

	session, err := h.DB.GetOrCreateQASession(c.Request.Context(), videoID, apiKeyID)
	if err != nil {
		log.Printf("❌ Failed to load Q&A session: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load Q&A session",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	prior, err := h.DB.ListQAMessages(c.Request.Context(), session.ID, 200)
	if err != nil {
		log.Printf("⚠️  Failed to load Q&A history: %v", err)
		prior = nil
	}
	// Replay only the most recent exchanges
	if len(prior) > historyLimit {
		prior = prior[len(prior)-historyLimit:]
	}

	history := make([]insight.Message, 0, len(prior))
	for _, m := range prior {
		history = append(history, insight.Message{Role: m.Role, Content: m.Content})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	answer, modelUsed, err := h.Generator.Answer(ctx, v.CaptionText, history, req.Question, req.Model)
	if err != nil {
		log.Printf("❌ Q&A generation failed for video %s: %v", videoID, err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "generation_failed",
			Message: "Failed to generate an answer: " + err.Error(),
			Code:    http.StatusBadGateway,
		})
		return
	}

	// Persist the exchange. The answer already exists at this point, so a
	// storage failure is logged but still returns the answer to the client.
	userMsg := &models.QAMessage{
		SessionID: session.ID,
		Role:      "user",
		Content:   req.Question,
	}
	if err := h.DB.CreateQAMessage(c.Request.Context(), userMsg); err != nil {
		log.Printf("⚠️  Failed to store question: %v", err)
	}

	assistantMsg := &models.QAMessage{
		SessionID: session.ID,
		Role:      "assistant",
		Content:   answer,
		ModelUsed: modelUsed,
	}
	if err := h.DB.CreateQAMessage(c.Request.Context(), assistantMsg); err != nil {
		log.Printf("⚠️  Failed to store answer: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"question":   req.Question,
		"answer":     answer,
		"model_used": modelUsed,
	})
}
