// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Lumio-Labs/video-insights-api/internal/config"
	"github.com/Lumio-Labs/video-insights-api/internal/database"
	"github.com/Lumio-Labs/video-insights-api/internal/handlers"
	"github.com/Lumio-Labs/video-insights-api/internal/middleware"
	"github.com/Lumio-Labs/video-insights-api/internal/services/insight"
	"github.com/Lumio-Labs/video-insights-api/internal/services/speech"
	"github.com/Lumio-Labs/video-insights-api/internal/services/transcribe"
	"github.com/Lumio-Labs/video-insights-api/internal/services/worker"
)

// Setup creates and configures the Gin router with all routes.
func Setup(cfg *config.Config, db *database.DB, wp *worker.Pool, gen *insight.Generator,
	synth *speech.Synthesizer, tr *transcribe.Transcriber) *gin.Engine {

	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	h := handlers.NewHandler(db, wp, gen, synth, tr)
	h.JWTSecret = cfg.JWTSecret
	h.AdminAPIKey = cfg.AdminAPIKey
	h.OwnerAPIKeyID = cfg.OwnerAPIKeyID
	h.OwnerAPIKeyPrefix = cfg.OwnerAPIKeyPrefix
	h.DefaultRateLimit = cfg.DefaultRateLimit
	h.CaptionLang = cfg.CaptionLang
	h.TTSLang = cfg.TTSLang

	rateLimiter := middleware.NewRateLimiter()

	// --- Public Routes (no auth required) ---
	r.GET("/api/v1/health", h.HealthCheck)
	r.POST("/api/v1/keys", h.CreateAPIKey) // gated by X-Admin-Key when configured

	// API documentation
	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPISpec)

	// --- Auth routes — public ---
	r.POST("/api/v1/auth/register", h.Register)
	r.POST("/api/v1/auth/login", h.Login)

	// --- JWT-protected routes ---
	jwtProtected := r.Group("/api/v1")
	jwtProtected.Use(middleware.JWTAuth(db, cfg.JWTSecret))
	{
		jwtProtected.GET("/auth/me", h.GetMe)
		jwtProtected.POST("/auth/refresh", h.RefreshToken)
		jwtProtected.GET("/workspace", h.GetWorkspace)
		jwtProtected.POST("/workspace", h.SaveToWorkspace)
		jwtProtected.DELETE("/workspace/:type/:id", h.RemoveFromWorkspace)
	}

	// --- Protected routes (API key OR JWT) ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.DualAuth(db, cfg.JWTSecret))
	protected.Use(rateLimiter.RateLimit())
	{
		// Video ingestion and retrieval
		protected.POST("/videos", h.CreateVideo)
		protected.GET("/videos", h.ListVideos)
		protected.GET("/videos/:id", h.GetVideo)
		protected.DELETE("/videos/:id", h.DeleteVideo)
		protected.GET("/videos/:id/export", h.ExportVideo)

		// Batch processing
		protected.POST("/videos/batch", h.CreateBatch)
		protected.GET("/batches/:id", h.GetBatch)

		// AI insights
		protected.POST("/videos/:id/insights", h.CreateInsight)
		protected.GET("/videos/:id/insights", h.GetInsightsByVideo)
		protected.GET("/insights/:id", h.GetInsight)
		protected.DELETE("/insights/:id", h.DeleteInsight)

		// Caption-grounded Q&A
		protected.GET("/videos/:id/qa", h.GetQAHistory)
		protected.POST("/videos/:id/qa", h.AskQuestion)

		// Speech synthesis
		protected.POST("/videos/:id/speech", h.CreateSpeechRender)
		protected.GET("/videos/:id/speech", h.GetSpeechRendersByVideo)
		protected.GET("/speech/:id", h.GetSpeechRender)
		protected.GET("/speech/:id/download", h.DownloadSpeechAudio)
		protected.DELETE("/speech/:id", h.DeleteSpeechRender)

		// API key management
		protected.GET("/keys", h.ListAPIKeys)
		protected.DELETE("/keys/:id", h.RevokeAPIKey)

		// Webhook management
		protected.POST("/webhooks", h.CreateWebhook)
		protected.GET("/webhooks", h.ListWebhooks)
		protected.GET("/webhooks/deliveries", h.ListWebhookDeliveries)
		protected.GET("/webhooks/:id/deliveries", h.GetWebhookDeliveries)
		protected.PATCH("/webhooks/:id", h.UpdateWebhook)
		protected.DELETE("/webhooks/:id", h.DeleteWebhook)
	}

	return r
}
