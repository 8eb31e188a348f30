// Package worker provides background job processing on a pool of
// goroutines reading from a buffered channel. Handlers create the database
// row first, then queue a job referencing it; workers load the row, do the
// slow work (caption fetching, generation, synthesis), and write the
// result back.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Lumio-Labs/video-insights-api/internal/database"
	"github.com/Lumio-Labs/video-insights-api/internal/models"
	"github.com/Lumio-Labs/video-insights-api/internal/services/captions"
	"github.com/Lumio-Labs/video-insights-api/internal/services/insight"
	"github.com/Lumio-Labs/video-insights-api/internal/services/speech"
	"github.com/Lumio-Labs/video-insights-api/internal/services/transcribe"
	"github.com/Lumio-Labs/video-insights-api/internal/services/webhook"
)

// JobType identifies what kind of work a job represents.
type JobType string

const (
	JobVideoProcessing   JobType = "video_processing"
	JobInsightGeneration JobType = "insight_generation"
	JobSpeechSynthesis   JobType = "speech_synthesis"
)

// Job represents a unit of work to be processed by a worker.
type Job struct {
	ID        string // The database record ID
	Type      JobType
	Payload   json.RawMessage // job-type specific data
	CreatedAt time.Time
}

// VideoPayload is the data for a video processing job.
type VideoPayload struct {
	Language string `json:"language"`
}

// InsightPayload is the data for an insight generation job.
type InsightPayload struct {
	VideoID   string `json:"video_id"`
	InsightID string `json:"insight_id"`
	Kind      string `json:"kind"`
	Model     string `json:"model"`
}

// SpeechPayload is the data for a speech synthesis job.
type SpeechPayload struct {
	VideoID  string `json:"video_id"`
	RenderID string `json:"render_id"`
	Language string `json:"language"`
}

// Pool manages a pool of worker goroutines.
type Pool struct {
	jobs    chan Job
	workers int

	db          *database.DB
	fetcher     captions.Fetcher
	transcriber *transcribe.Transcriber
	generator   *insight.Generator
	synthesizer *speech.Synthesizer
	notifier    *webhook.Service

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new worker pool. transcriber and notifier may be nil
// (no Whisper fallback, no webhook delivery).
func NewPool(workers, queueSize int, db *database.DB, fetcher captions.Fetcher,
	transcriber *transcribe.Transcriber, generator *insight.Generator,
	synthesizer *speech.Synthesizer, notifier *webhook.Service) *Pool {

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:        make(chan Job, queueSize),
		workers:     workers,
		db:          db,
		fetcher:     fetcher,
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		notifier:    notifier,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d background workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully shuts down all workers, draining queued jobs first.
func (p *Pool) Stop() {
	log.Println("⏹️  Stopping workers...")
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
	log.Println("✅ All workers stopped")
}

// Submit adds a job to the queue without blocking.
// Returns an error if the queue is full.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		log.Printf("📥 Job queued: %s (type: %s)", job.ID, job.Type)
		return nil
	default:
		return fmt.Errorf("job queue is full; try again later")
	}
}

// SubmitBlocking adds a job to the queue, waiting for space if needed.
// Used by the owner override so personal jobs never bounce off a full
// queue; the context bounds the wait.
func (p *Pool) SubmitBlocking(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		log.Printf("📥 Job queued (blocking): %s (type: %s)", job.ID, job.Type)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for queue space: %w", ctx.Err())
	}
}

// QueueSize returns the current number of jobs in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log.Printf("👷 Worker %d started", id)

	for job := range p.jobs {
		select {
		case <-p.ctx.Done():
			log.Printf("👷 Worker %d shutting down", id)
			return
		default:
		}

		log.Printf("👷 Worker %d processing job: %s (type: %s)", id, job.ID, job.Type)

		var err error
		switch job.Type {
		case JobVideoProcessing:
			err = p.processVideo(job)
		case JobInsightGeneration:
			err = p.processInsight(job)
		case JobSpeechSynthesis:
			err = p.processSpeech(job)
		default:
			log.Printf("❌ Worker %d: unknown job type: %s", id, job.Type)
		}

		if err != nil {
			log.Printf("❌ Worker %d: job %s failed: %v", id, job.ID, err)
		} else {
			log.Printf("✅ Worker %d: job %s completed", id, job.ID)
		}
	}

	log.Printf("👷 Worker %d stopped", id)
}

// processVideo fetches captions for a video, falling back to audio
// transcription when no caption track exists.
func (p *Pool) processVideo(job Job) error {
	ctx := p.ctx

	var payload VideoPayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("invalid video payload: %w", err)
		}
	}
	if payload.Language == "" {
		payload.Language = "en"
	}

	v, err := p.db.GetVideo(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to get video: %w", err)
	}

	v.Status = models.StatusProcessing
	if err := p.db.UpdateVideo(ctx, v); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	result, err := p.fetcher.Fetch(ctx, v.YouTubeID, payload.Language)
	if errors.Is(err, captions.ErrNoCaptions) {
		// Metadata resolved even without captions; keep it either way.
		if result != nil {
			v.Title = result.Title
			v.ChannelName = result.ChannelName
			v.Duration = result.Duration
		}
		result, err = p.fallbackTranscribe(ctx, v)
	}
	if err != nil {
		v.Status = models.StatusFailed
		v.ErrorMessage = err.Error()
		p.db.UpdateVideo(ctx, v)
		p.finishVideo(ctx, v)
		return fmt.Errorf("caption processing failed: %w", err)
	}

	if result.Title != "" {
		v.Title = result.Title
	}
	if result.ChannelName != "" {
		v.ChannelName = result.ChannelName
	}
	if result.Duration > 0 {
		v.Duration = result.Duration
	}
	v.Language = result.Language
	v.CaptionSource = models.CaptionSource(result.Source)
	v.CaptionText = result.Captions
	v.WordCount = result.WordCount
	v.Status = models.StatusCompleted
	v.ErrorMessage = ""

	if err := p.db.UpdateVideo(ctx, v); err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}

	p.finishVideo(ctx, v)
	return nil
}

// fallbackTranscribe runs the Whisper fallback for a captionless video.
func (p *Pool) fallbackTranscribe(ctx context.Context, v *models.Video) (*captions.Result, error) {
	if p.transcriber == nil || !p.transcriber.IsConfigured() {
		return nil, fmt.Errorf("video has no captions and audio transcription is not configured")
	}

	log.Printf("🎧 Worker: no captions for %s, falling back to audio transcription", v.YouTubeID)
	tr, err := p.transcriber.Transcribe(ctx, v.YouTubeID)
	if err != nil {
		return nil, fmt.Errorf("audio transcription failed: %w", err)
	}

	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return nil, fmt.Errorf("audio transcription produced no text")
	}

	return &captions.Result{
		VideoID:     v.YouTubeID,
		Title:       v.Title,
		ChannelName: v.ChannelName,
		Duration:    v.Duration,
		Language:    tr.Language,
		Source:      string(models.SourceWhisper),
		Captions:    text,
		WordCount:   captions.CountWords(text),
	}, nil
}

// finishVideo updates batch progress and fires the completion webhook.
func (p *Pool) finishVideo(ctx context.Context, v *models.Video) {
	if v.BatchID != nil {
		if err := p.db.UpdateBatchCounts(ctx, *v.BatchID); err != nil {
			// Non-fatal, the counts self-heal on the next update
			log.Printf("⚠️  Failed to update batch counts for %s: %v", *v.BatchID, err)
		}
	}

	if p.notifier == nil {
		return
	}
	event := models.EventVideoCompleted
	if v.Status == models.StatusFailed {
		event = models.EventVideoFailed
	}
	p.notifier.NotifyEvent(ctx, event, v)
}

// processInsight generates one AI analysis for a completed video.
func (p *Pool) processInsight(job Job) error {
	ctx := p.ctx

	var payload InsightPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid insight payload: %w", err)
	}

	in, err := p.db.GetInsight(ctx, payload.InsightID)
	if err != nil {
		return fmt.Errorf("insight not found: %w", err)
	}

	v, err := p.db.GetVideo(ctx, payload.VideoID)
	if err != nil {
		return fmt.Errorf("video not found: %w", err)
	}

	if v.Status != models.StatusCompleted || v.CaptionText == "" {
		return p.failInsight(ctx, in, fmt.Errorf("video not ready (status: %s)", v.Status))
	}

	in.Status = models.StatusProcessing
	if err := p.db.UpdateInsight(ctx, in); err != nil {
		return fmt.Errorf("failed to update insight status: %w", err)
	}

	result, err := p.generator.Generate(ctx, payload.Kind, v.CaptionText, payload.Model)
	if err != nil {
		return p.failInsight(ctx, in, err)
	}

	in.ModelUsed = result.Model
	in.PromptUsed = result.Prompt
	in.Content = result.Content
	in.Items = result.Items
	in.Status = models.StatusCompleted
	in.ErrorMessage = ""
	if err := p.db.UpdateInsight(ctx, in); err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}

	if p.notifier != nil {
		p.notifier.NotifyEvent(ctx, models.EventInsightCompleted, in)
	}
	return nil
}

func (p *Pool) failInsight(ctx context.Context, in *models.Insight, cause error) error {
	in.Status = models.StatusFailed
	in.ErrorMessage = cause.Error()
	p.db.UpdateInsight(ctx, in)
	if p.notifier != nil {
		p.notifier.NotifyEvent(ctx, models.EventInsightFailed, in)
	}
	return fmt.Errorf("insight generation failed: %w", cause)
}

// processSpeech renders a video's summary to MP3. If no completed summary
// insight exists yet, one is generated first and stored.
func (p *Pool) processSpeech(job Job) error {
	ctx := p.ctx

	var payload SpeechPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid speech payload: %w", err)
	}

	sr, err := p.db.GetSpeechRender(ctx, payload.RenderID)
	if err != nil {
		return fmt.Errorf("speech render not found: %w", err)
	}

	v, err := p.db.GetVideo(ctx, payload.VideoID)
	if err != nil {
		return fmt.Errorf("video not found: %w", err)
	}

	if v.Status != models.StatusCompleted || v.CaptionText == "" {
		return p.failSpeech(ctx, sr, fmt.Errorf("video not ready (status: %s)", v.Status))
	}

	sr.Status = models.StatusProcessing
	if err := p.db.UpdateSpeechRender(ctx, sr); err != nil {
		return fmt.Errorf("failed to update render status: %w", err)
	}

	summary, err := p.summaryForVideo(ctx, v)
	if err != nil {
		return p.failSpeech(ctx, sr, err)
	}
	sr.InsightID = &summary.ID

	render, err := p.synthesizer.Synthesize(ctx, summary.Content, payload.Language)
	if err != nil {
		return p.failSpeech(ctx, sr, err)
	}

	// Re-rendering replaces the previous audio file.
	if previous, err := p.db.GetPreviousSpeechRenders(ctx, v.ID, sr.ID); err == nil {
		for _, old := range previous {
			if old.Filename != "" {
				if err := p.synthesizer.Remove(old.Filename); err != nil {
					log.Printf("⚠️  Failed to remove stale render %s: %v", old.Filename, err)
				}
			}
		}
	}

	sr.Filename = render.Filename
	sr.ByteSize = render.ByteSize
	sr.Status = models.StatusCompleted
	sr.ErrorMessage = ""
	if err := p.db.UpdateSpeechRender(ctx, sr); err != nil {
		return fmt.Errorf("failed to save speech render: %w", err)
	}

	if p.notifier != nil {
		p.notifier.NotifyEvent(ctx, models.EventSpeechCompleted, sr)
	}
	return nil
}

// summaryForVideo returns the latest completed summary insight, generating
// and storing one when none exists.
func (p *Pool) summaryForVideo(ctx context.Context, v *models.Video) (*models.Insight, error) {
	existing, err := p.db.GetLatestInsightByKind(ctx, v.ID, models.InsightSummary)
	if err == nil && existing.Content != "" {
		return existing, nil
	}

	result, err := p.generator.Generate(ctx, string(models.InsightSummary), v.CaptionText, "")
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary for speech: %w", err)
	}

	in := &models.Insight{
		VideoID:    v.ID,
		Kind:       models.InsightSummary,
		ModelUsed:  result.Model,
		PromptUsed: result.Prompt,
		Content:    result.Content,
		Items:      result.Items,
		Status:     models.StatusCompleted,
	}
	if err := p.db.CreateInsight(ctx, in); err != nil {
		return nil, fmt.Errorf("failed to store generated summary: %w", err)
	}
	return in, nil
}

func (p *Pool) failSpeech(ctx context.Context, sr *models.SpeechRender, cause error) error {
	sr.Status = models.StatusFailed
	sr.ErrorMessage = cause.Error()
	p.db.UpdateSpeechRender(ctx, sr)
	return fmt.Errorf("speech synthesis failed: %w", cause)
}
