// speech.go handles speech-render database operations.
package database

import (
	"context"
	"fmt"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
)

// CreateSpeechRender inserts a new speech render record.
func (db *DB) CreateSpeechRender(ctx context.Context, sr *models.SpeechRender) error {
	query := `
		INSERT INTO speech_renders (video_id, insight_id, filename, language, byte_size, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		sr.VideoID, sr.InsightID, sr.Filename, sr.Language,
		sr.ByteSize, sr.Status, sr.ErrorMessage,
	).Scan(&sr.ID, &sr.CreatedAt, &sr.UpdatedAt)
}

// GetSpeechRender retrieves a single speech render by ID.
func (db *DB) GetSpeechRender(ctx context.Context, id string) (*models.SpeechRender, error) {
	var sr models.SpeechRender
	err := db.GetContext(ctx, &sr, `SELECT * FROM speech_renders WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("speech render not found: %w", err)
	}
	return &sr, nil
}

// UpdateSpeechRender stores the synthesis result (or failure).
func (db *DB) UpdateSpeechRender(ctx context.Context, sr *models.SpeechRender) error {
	query := `
		UPDATE speech_renders
		SET insight_id = $2, filename = $3, byte_size = $4, status = $5,
			error_message = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return db.QueryRowContext(ctx, query,
		sr.ID, sr.InsightID, sr.Filename, sr.ByteSize, sr.Status, sr.ErrorMessage,
	).Scan(&sr.UpdatedAt)
}

// GetSpeechRendersByVideo returns all speech renders for a video, newest first.
func (db *DB) GetSpeechRendersByVideo(ctx context.Context, videoID string) ([]models.SpeechRender, error) {
	var renders []models.SpeechRender
	err := db.SelectContext(ctx, &renders,
		`SELECT * FROM speech_renders WHERE video_id = $1 ORDER BY created_at DESC`, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list speech renders: %w", err)
	}
	return renders, nil
}

// GetPreviousSpeechRenders returns completed renders for a video other than
// the given one. The worker uses this to delete stale MP3 files when a
// summary is re-rendered.
func (db *DB) GetPreviousSpeechRenders(ctx context.Context, videoID, excludeID string) ([]models.SpeechRender, error) {
	var renders []models.SpeechRender
	err := db.SelectContext(ctx, &renders,
		`SELECT * FROM speech_renders
		 WHERE video_id = $1 AND id != $2 AND status = 'completed'`,
		videoID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list previous renders: %w", err)
	}
	return renders, nil
}

// DeleteSpeechRender removes a speech render row by ID.
func (db *DB) DeleteSpeechRender(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM speech_renders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete speech render: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("speech render not found")
	}
	return nil
}
