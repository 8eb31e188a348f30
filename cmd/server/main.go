// Package main is the entry point for the Video Insights API server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Lumio-Labs/video-insights-api/internal/config"
	"github.com/Lumio-Labs/video-insights-api/internal/database"
	"github.com/Lumio-Labs/video-insights-api/internal/router"
	"github.com/Lumio-Labs/video-insights-api/internal/services/captions"
	"github.com/Lumio-Labs/video-insights-api/internal/services/insight"
	"github.com/Lumio-Labs/video-insights-api/internal/services/speech"
	"github.com/Lumio-Labs/video-insights-api/internal/services/transcribe"
	"github.com/Lumio-Labs/video-insights-api/internal/services/webhook"
	"github.com/Lumio-Labs/video-insights-api/internal/services/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 Video Insights API %s starting...", Version)

	// .env is optional; real deployments set variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("📋 Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	log.Printf("📋 Config loaded: port=%s, workers=%d, gin_mode=%s", cfg.Port, cfg.WorkerCount, cfg.GinMode)

	os.Setenv("GIN_MODE", cfg.GinMode)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("✅ Database connected")

	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// Services
	fetcher := captions.NewFetcher()

	transcriber := transcribe.NewTranscriber(cfg.OpenAIAPIKey)
	if transcriber.IsConfigured() {
		log.Println("✅ Whisper fallback enabled (audio is transcribed when a video has no captions)")
	} else {
		log.Println("⚠️  Whisper fallback disabled (set OPENAI_API_KEY to enable)")
	}

	generator, err := insight.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("❌ Failed to create insight generator: %v", err)
	}
	defer generator.Close()

	if generator.IsConfigured() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := generator.ValidateKey(ctx); err != nil {
			log.Printf("⚠️  Gemini API key validation failed: %v", err)
		} else {
			log.Printf("✅ Insight generation enabled (model: %s)", cfg.GeminiModel)
		}
		cancel()
	} else {
		log.Println("⚠️  Insight generation disabled (set GEMINI_API_KEY to enable)")
	}

	synthesizer, err := speech.NewSynthesizer(cfg.AudioDir)
	if err != nil {
		log.Fatalf("❌ Failed to prepare audio directory: %v", err)
	}
	log.Printf("✅ Speech synthesis ready (audio dir: %s)", cfg.AudioDir)

	webhookService := webhook.New(db)
	log.Println("✅ Webhook notification service initialized")

	// Worker pool
	wp := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize, db, fetcher,
		transcriber, generator, synthesizer, webhookService)
	wp.Start()
	defer wp.Stop()

	if cfg.AdminAPIKey != "" {
		log.Println("✅ Admin API key configured (API key creation protected)")
	} else {
		log.Println("⚠️  No admin API key set (API key creation is open — set ADMIN_API_KEY in production)")
	}

	// HTTP server
	r := router.Setup(cfg, db, wp, generator, synthesizer, transcriber)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Q&A answers are generated inline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Printf("📖 Health check: http://localhost:%s/api/v1/health", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)

	webhookService.Shutdown()
	log.Println("⏳ Webhook deliveries signaled to stop")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("👋 Server stopped. Goodbye!")
}
