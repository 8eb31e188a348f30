// insights.go handles insight-related database operations.
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
)

// itemsOrNull maps a nil RawMessage to the JSON null literal so the
// NOT NULL jsonb column always receives a value.
func itemsOrNull(items json.RawMessage) []byte {
	if len(items) == 0 {
		return []byte("null")
	}
	return items
}

// CreateInsight inserts a new insight record, usually in "pending" status
// before the generation job is queued.
func (db *DB) CreateInsight(ctx context.Context, in *models.Insight) error {
	query := `
		INSERT INTO insights (video_id, kind, model_used, prompt_used, content, items, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		in.VideoID, in.Kind, in.ModelUsed, in.PromptUsed,
		in.Content, itemsOrNull(in.Items), in.Status, in.ErrorMessage,
	).Scan(&in.ID, &in.CreatedAt, &in.UpdatedAt)
}

// GetInsight retrieves a single insight by ID.
func (db *DB) GetInsight(ctx context.Context, id string) (*models.Insight, error) {
	var in models.Insight
	err := db.GetContext(ctx, &in, `SELECT * FROM insights WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("insight not found: %w", err)
	}
	return &in, nil
}

// UpdateInsight stores the generation result (or failure) for an insight.
func (db *DB) UpdateInsight(ctx context.Context, in *models.Insight) error {
	query := `
		UPDATE insights
		SET model_used = $2, prompt_used = $3, content = $4, items = $5,
			status = $6, error_message = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return db.QueryRowContext(ctx, query,
		in.ID, in.ModelUsed, in.PromptUsed, in.Content, itemsOrNull(in.Items),
		in.Status, in.ErrorMessage,
	).Scan(&in.UpdatedAt)
}

// GetInsightsByVideo returns all insights for a given video, newest first.
func (db *DB) GetInsightsByVideo(ctx context.Context, videoID string) ([]models.Insight, error) {
	var insights []models.Insight
	err := db.SelectContext(ctx, &insights,
		`SELECT * FROM insights WHERE video_id = $1 ORDER BY created_at DESC`, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return insights, nil
}

// GetLatestInsightByKind returns the most recent completed insight of a kind
// for a video. Used by speech synthesis (needs the latest summary) and by
// exports.
func (db *DB) GetLatestInsightByKind(ctx context.Context, videoID string, kind models.InsightKind) (*models.Insight, error) {
	var in models.Insight
	err := db.GetContext(ctx, &in,
		`SELECT * FROM insights
		 WHERE video_id = $1 AND kind = $2 AND status = 'completed'
		 ORDER BY created_at DESC LIMIT 1`,
		videoID, kind)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// DeleteInsight removes an insight by ID.
func (db *DB) DeleteInsight(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM insights WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete insight: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("insight not found")
	}
	return nil
}
