// qa.go handles Q&A session and message database operations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
)

// GetOrCreateQASession finds or creates the Q&A session for a video.
// Sessions are scoped per API key so different callers keep separate
// conversation histories for the same video.
func (db *DB) GetOrCreateQASession(ctx context.Context, videoID string, apiKeyID *string) (*models.QASession, error) {
	var session models.QASession
	var err error

	if apiKeyID != nil {
		err = db.GetContext(ctx, &session,
			`SELECT * FROM qa_sessions WHERE video_id = $1 AND api_key_id = $2`,
			videoID, *apiKeyID)
	} else {
		err = db.GetContext(ctx, &session,
			`SELECT * FROM qa_sessions WHERE video_id = $1 AND api_key_id IS NULL`,
			videoID)
	}

	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch qa session: %w", err)
	}

	query := `
		INSERT INTO qa_sessions (video_id, api_key_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`
	if apiKeyID != nil {
		err = db.QueryRowContext(ctx, query, videoID, *apiKeyID).
			Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
		session.APIKeyID = apiKeyID
	} else {
		err = db.QueryRowContext(ctx, query, videoID, nil).
			Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create qa session: %w", err)
	}
	session.VideoID = videoID

	return &session, nil
}

// ListQAMessages returns messages for a session in chronological order.
func (db *DB) ListQAMessages(ctx context.Context, sessionID string, limit int) ([]models.QAMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var messages []models.QAMessage
	err := db.SelectContext(ctx, &messages,
		`SELECT * FROM qa_messages WHERE session_id = $1 ORDER BY created_at ASC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list qa messages: %w", err)
	}
	return messages, nil
}

// CreateQAMessage inserts a message and bumps the session timestamp.
func (db *DB) CreateQAMessage(ctx context.Context, msg *models.QAMessage) error {
	query := `
		INSERT INTO qa_messages (session_id, role, content, model_used)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := db.QueryRowContext(ctx, query,
		msg.SessionID, msg.Role, msg.Content, msg.ModelUsed,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("failed to create qa message: %w", err)
	}

	_, _ = db.ExecContext(ctx,
		`UPDATE qa_sessions SET updated_at = NOW() WHERE id = $1`,
		msg.SessionID)
	return nil
}
