// Package database handles PostgreSQL connections and queries.
//
// Built on sqlx over database/sql: raw SQL with struct scanning via the
// db tags on the models. One *DB is created at startup and shared; the
// underlying pool is safe for concurrent use.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Lumio-Labs/video-insights-api/internal/models"
)

// DB wraps the sqlx database connection with our application-specific methods.
type DB struct {
	*sqlx.DB
}

// New creates a new database connection with connection pooling configured.
func New(databaseURL string) (*DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Tuned for serverless PostgreSQL, which closes idle connections
	// aggressively. Fewer, shorter-lived connections avoid surprises.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	return &DB{db}, nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// --- Video Operations ---

// CreateVideo inserts a new video record.
// Returns the created video with its generated ID and timestamps.
func (db *DB) CreateVideo(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (youtube_url, youtube_id, title, channel_name, duration, language, caption_source, caption_text, word_count, status, error_message, batch_id, api_key_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		v.YouTubeURL, v.YouTubeID, v.Title, v.ChannelName,
		v.Duration, v.Language, v.CaptionSource, v.CaptionText,
		v.WordCount, v.Status, v.ErrorMessage, v.BatchID, v.APIKeyID,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// GetVideo retrieves a single video by ID.
func (db *DB) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var v models.Video
	err := db.GetContext(ctx, &v, `SELECT * FROM videos WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("video not found: %w", err)
	}
	return &v, nil
}

// GetCompletedVideoByYouTubeID finds an already-processed record for this
// YouTube video, used to deduplicate ingestion requests.
func (db *DB) GetCompletedVideoByYouTubeID(ctx context.Context, youtubeID string) (*models.Video, error) {
	var v models.Video
	err := db.GetContext(ctx, &v,
		`SELECT * FROM videos WHERE youtube_id = $1 AND status = 'completed' ORDER BY created_at DESC LIMIT 1`,
		youtubeID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVideo updates a video's fields after processing.
func (db *DB) UpdateVideo(ctx context.Context, v *models.Video) error {
	query := `
		UPDATE videos
		SET title = $2, channel_name = $3, duration = $4, language = $5,
			caption_source = $6, caption_text = $7, word_count = $8,
			status = $9, error_message = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return db.QueryRowContext(ctx, query,
		v.ID, v.Title, v.ChannelName, v.Duration, v.Language,
		v.CaptionSource, v.CaptionText, v.WordCount, v.Status, v.ErrorMessage,
	).Scan(&v.UpdatedAt)
}

// ListVideos returns a paginated list of videos with optional filters.
func (db *DB) ListVideos(ctx context.Context, params models.VideoListParams) ([]models.Video, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 20
	}
	if params.SortBy == "" {
		params.SortBy = "created_at"
	}
	if params.SortDir == "" {
		params.SortDir = "desc"
	}

	var conditions []string
	var args []interface{}
	argNum := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, params.Status)
		argNum++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR channel_name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+params.Search+"%")
		argNum++
	}

	if params.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, params.DateFrom)
		argNum++
	}

	if params.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, params.DateTo)
		argNum++
	}

	if params.APIKeyID != nil {
		conditions = append(conditions, fmt.Sprintf("api_key_id = $%d", argNum))
		args = append(args, *params.APIKeyID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Sort column whitelist prevents SQL injection via ORDER BY.
	validSortColumns := map[string]bool{
		"created_at": true, "title": true, "word_count": true, "duration": true,
	}
	if !validSortColumns[params.SortBy] {
		params.SortBy = "created_at"
	}
	if params.SortDir != "asc" && params.SortDir != "desc" {
		params.SortDir = "desc"
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM videos %s", whereClause)
	var total int
	err := db.GetContext(ctx, &total, countQuery, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			total = 0
		} else {
			return nil, 0, fmt.Errorf("count query failed: %w", err)
		}
	}

	offset := (params.Page - 1) * params.PerPage
	selectQuery := fmt.Sprintf(
		"SELECT * FROM videos %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		whereClause, params.SortBy, params.SortDir, argNum, argNum+1,
	)
	args = append(args, params.PerPage, offset)

	var videos []models.Video
	err = db.SelectContext(ctx, &videos, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query failed: %w", err)
	}

	return videos, total, nil
}

// DeleteVideo removes a video by ID. Insights, QA sessions, and speech
// renders cascade via foreign keys.
func (db *DB) DeleteVideo(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("video not found")
	}
	return nil
}

// --- API Key Operations ---

// CreateAPIKey inserts a new API key record.
func (db *DB) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (key_hash, key_prefix, name, active, rate_limit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		key.KeyHash, key.KeyPrefix, key.Name, key.Active, key.RateLimit,
	).Scan(&key.ID, &key.CreatedAt)
}

// GetAPIKeyByHash retrieves an API key by its hash (used during authentication).
func (db *DB) GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	var key models.APIKey
	err := db.GetContext(ctx, &key,
		`SELECT * FROM api_keys WHERE key_hash = $1 AND active = true`, hash)
	if err != nil {
		return nil, fmt.Errorf("invalid API key: %w", err)
	}
	return &key, nil
}

// UpdateAPIKeyLastUsed bumps the last_used_at timestamp.
func (db *DB) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}

// ListAPIKeys returns all API keys (active and inactive).
func (db *DB) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := db.SelectContext(ctx, &keys, `SELECT * FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey deactivates an API key.
func (db *DB) RevokeAPIKey(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `UPDATE api_keys SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("API key not found")
	}
	return nil
}
