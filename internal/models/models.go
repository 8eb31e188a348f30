// Package models defines the data structures used throughout the application.
//
// Models are plain structs with JSON tags for serialization. The `db` tags
// map columns for sqlx — persistence itself lives in the database package.
package models

import (
	"encoding/json"
	"time"
)

// VideoStatus represents the processing state of a video record.
type VideoStatus string

const (
	StatusPending    VideoStatus = "pending"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
)

// CaptionSource records how the caption text was obtained.
type CaptionSource string

const (
	SourceManual  CaptionSource = "manual"  // uploader-provided caption track
	SourceAuto    CaptionSource = "auto"    // YouTube auto-generated captions
	SourceWhisper CaptionSource = "whisper" // audio download + Whisper transcription
)

// Video represents a YouTube video whose captions have been (or are being)
// fetched for analysis.
type Video struct {
	ID            string        `json:"id" db:"id"`
	YouTubeURL    string        `json:"youtube_url" db:"youtube_url"`
	YouTubeID     string        `json:"youtube_id" db:"youtube_id"`
	Title         string        `json:"title" db:"title"`
	ChannelName   string        `json:"channel_name" db:"channel_name"`
	Duration      int           `json:"duration" db:"duration"` // seconds
	Language      string        `json:"language" db:"language"`
	CaptionSource CaptionSource `json:"caption_source" db:"caption_source"`
	CaptionText   string        `json:"caption_text" db:"caption_text"`
	WordCount     int           `json:"word_count" db:"word_count"`
	Status        VideoStatus   `json:"status" db:"status"`
	ErrorMessage  string        `json:"error_message,omitempty" db:"error_message"`
	BatchID       *string       `json:"batch_id,omitempty" db:"batch_id"`
	APIKeyID      *string       `json:"api_key_id,omitempty" db:"api_key_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// InsightKind identifies which analysis a generated insight holds.
type InsightKind string

const (
	InsightSummary    InsightKind = "summary"
	InsightKeyPoints  InsightKind = "key_points"
	InsightFlashcards InsightKind = "flashcards"
	InsightQuiz       InsightKind = "quiz"
	InsightSentiment  InsightKind = "sentiment"
	InsightTopics     InsightKind = "topics"
)

// ValidInsightKinds is the allow-list checked on insight creation.
var ValidInsightKinds = map[InsightKind]bool{
	InsightSummary:    true,
	InsightKeyPoints:  true,
	InsightFlashcards: true,
	InsightQuiz:       true,
	InsightSentiment:  true,
	InsightTopics:     true,
}

// Insight represents one AI-generated analysis of a video's captions.
// Content holds the raw model text; Items holds the structured form
// (cards, quiz questions, bullet points) when the model returned valid JSON.
type Insight struct {
	ID           string          `json:"id" db:"id"`
	VideoID      string          `json:"video_id" db:"video_id"`
	Kind         InsightKind     `json:"kind" db:"kind"`
	ModelUsed    string          `json:"model_used" db:"model_used"`
	PromptUsed   string          `json:"prompt_used" db:"prompt_used"`
	Content      string          `json:"content" db:"content"`
	Items        json.RawMessage `json:"items" db:"items"` // JSONB
	Status       VideoStatus     `json:"status" db:"status"`
	ErrorMessage string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Flashcard is one question/answer pair from a flashcards insight.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizQuestion is one multiple-choice question from a quiz insight.
type QuizQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"` // four options, A-D order
	Answer  string   `json:"answer"`  // letter of the correct option
}

// QASession groups the question/answer exchanges for one video.
type QASession struct {
	ID        string    `json:"id" db:"id"`
	VideoID   string    `json:"video_id" db:"video_id"`
	APIKeyID  *string   `json:"api_key_id,omitempty" db:"api_key_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// QAMessage is a single message in a Q&A session ("user" or "assistant").
type QAMessage struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	ModelUsed string    `json:"model_used,omitempty" db:"model_used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SpeechRender is an MP3 rendition of a video's summary.
type SpeechRender struct {
	ID           string      `json:"id" db:"id"`
	VideoID      string      `json:"video_id" db:"video_id"`
	InsightID    *string     `json:"insight_id,omitempty" db:"insight_id"`
	Filename     string      `json:"filename" db:"filename"`
	Language     string      `json:"language" db:"language"`
	ByteSize     int64       `json:"byte_size" db:"byte_size"`
	Status       VideoStatus `json:"status" db:"status"`
	ErrorMessage string      `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Batch represents a group of video ingestion requests submitted together.
// The counts are denormalized so GET /batches/:id is a single-row read.
type Batch struct {
	ID             string      `json:"id" db:"id"`
	Status         VideoStatus `json:"status" db:"status"`
	TotalCount     int         `json:"total_count" db:"total_count"`
	CompletedCount int         `json:"completed_count" db:"completed_count"`
	FailedCount    int         `json:"failed_count" db:"failed_count"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// APIKey represents an API key for authentication.
// Only the SHA-256 hash of the key is stored, never the raw key.
type APIKey struct {
	ID         string     `json:"id" db:"id"`
	KeyHash    string     `json:"-" db:"key_hash"`
	KeyPrefix  string     `json:"key_prefix" db:"key_prefix"`
	Name       string     `json:"name" db:"name"`
	Active     bool       `json:"active" db:"active"`
	RateLimit  int        `json:"rate_limit" db:"rate_limit"` // requests per hour
	UserID     *string    `json:"user_id,omitempty" db:"user_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// User is a registered account for JWT-based access.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// WorkspaceItem links a saved video or insight to a user's workspace.
type WorkspaceItem struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ItemType  string    `json:"item_type" db:"item_type"` // "video" or "insight"
	ItemID    string    `json:"item_id" db:"item_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Webhook is a registered callback endpoint for async job events.
type Webhook struct {
	ID        string    `json:"id" db:"id"`
	APIKeyID  string    `json:"api_key_id" db:"api_key_id"`
	URL       string    `json:"url" db:"url"`
	Events    []string  `json:"events" db:"events"`
	Secret    string    `json:"-" db:"secret"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WebhookDelivery records one delivery attempt sequence for a webhook event.
type WebhookDelivery struct {
	ID           string     `json:"id" db:"id"`
	WebhookID    string     `json:"webhook_id" db:"webhook_id"`
	Event        string     `json:"event" db:"event"`
	Payload      string     `json:"payload" db:"payload"`
	Status       string     `json:"status" db:"status"` // pending, success, failed
	Attempts     int        `json:"attempts" db:"attempts"`
	LastError    string     `json:"last_error,omitempty" db:"last_error"`
	ResponseCode int        `json:"response_code,omitempty" db:"response_code"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// WebhookPayload is the JSON body POSTed to webhook endpoints.
type WebhookPayload struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Webhook event names.
const (
	EventVideoCompleted   = "video.completed"
	EventVideoFailed      = "video.failed"
	EventInsightCompleted = "insight.completed"
	EventInsightFailed    = "insight.failed"
	EventSpeechCompleted  = "speech.completed"
)

// ValidWebhookEvents is the allow-list checked on webhook registration.
var ValidWebhookEvents = map[string]bool{
	EventVideoCompleted:   true,
	EventVideoFailed:      true,
	EventInsightCompleted: true,
	EventInsightFailed:    true,
	EventSpeechCompleted:  true,
}

// --- Request/Response DTOs ---
// Separate structs for API input/output keep the wire contract independent
// of the database schema.

// CreateVideoRequest is the JSON body for POST /api/v1/videos.
type CreateVideoRequest struct {
	// Accept either a full YouTube URL or just the video ID
	URL      string `json:"url" binding:"required_without=VideoID"`
	VideoID  string `json:"video_id" binding:"required_without=URL"`
	Language string `json:"language,omitempty"` // preferred caption language, default "en"
}

// CreateBatchRequest is the JSON body for POST /api/v1/videos/batch.
type CreateBatchRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,max=10"`
}

// BatchResponse is the API response for a batch operation.
type BatchResponse struct {
	Batch  Batch   `json:"batch"`
	Videos []Video `json:"videos"`
}

// CreateInsightRequest is the JSON body for POST /api/v1/videos/:id/insights.
type CreateInsightRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Model string `json:"model,omitempty"` // optional model override
}

// AskQuestionRequest is the JSON body for POST /api/v1/videos/:id/qa.
type AskQuestionRequest struct {
	Question string `json:"question" binding:"required"`
	Model    string `json:"model,omitempty"`
}

// QAResponse bundles a session with its messages.
type QAResponse struct {
	Session  QASession   `json:"session"`
	Messages []QAMessage `json:"messages"`
}

// CreateSpeechRequest is the JSON body for POST /api/v1/videos/:id/speech.
type CreateSpeechRequest struct {
	Language string `json:"language,omitempty"` // TTS language, default from config
}

// CreateAPIKeyRequest is the JSON body for POST /api/v1/keys.
type CreateAPIKeyRequest struct {
	Name      string `json:"name" binding:"required"`
	RateLimit int    `json:"rate_limit,omitempty"` // 0 = use default
}

// CreateAPIKeyResponse includes the raw key — shown only once at creation time.
type CreateAPIKeyResponse struct {
	APIKey
	RawKey string `json:"raw_key"`
}

// RegisterRequest is the JSON body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register/login/refresh.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SaveWorkspaceItemRequest is the JSON body for POST /api/v1/workspace.
type SaveWorkspaceItemRequest struct {
	ItemType string `json:"item_type" binding:"required,oneof=video insight"`
	ItemID   string `json:"item_id" binding:"required"`
}

// WorkspaceResponse groups a user's saved items.
type WorkspaceResponse struct {
	Videos   []Video   `json:"videos"`
	Insights []Insight `json:"insights"`
}

// CreateWebhookRequest is the JSON body for POST /api/v1/webhooks.
type CreateWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events" binding:"required,min=1"`
}

// CreateWebhookResponse includes the signing secret — shown only once.
type CreateWebhookResponse struct {
	Webhook
	Secret string `json:"secret"`
}

// UpdateWebhookRequest is the JSON body for PATCH /api/v1/webhooks/:id.
type UpdateWebhookRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// VideoListParams holds query parameters for listing videos.
type VideoListParams struct {
	Page     int         `form:"page"`
	PerPage  int         `form:"per_page"`
	Status   VideoStatus `form:"status"`
	Search   string      `form:"search"` // matches title/channel
	SortBy   string      `form:"sort_by"`
	SortDir  string      `form:"sort_dir"`
	DateFrom string      `form:"date_from"`
	DateTo   string      `form:"date_to"`
	APIKeyID *string     `form:"-"`
}

// PaginatedResponse wraps a list response with pagination metadata.
type PaginatedResponse[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Workers  int    `json:"workers"`
	Queued   int    `json:"queued_jobs"`
	Gemini   bool   `json:"gemini_configured"`
	Whisper  bool   `json:"whisper_fallback"`
}
