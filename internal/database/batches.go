// batches.go handles batch-related database operations.
package database

import (
	"context"
	"fmt"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
)

// CreateBatch inserts a new batch record.
// The batch starts in "pending" status with the given total count.
func (db *DB) CreateBatch(ctx context.Context, b *models.Batch) error {
	query := `
		INSERT INTO batches (status, total_count, completed_count, failed_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		b.Status, b.TotalCount, b.CompletedCount, b.FailedCount,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// GetBatch retrieves a batch by ID.
func (db *DB) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	var b models.Batch
	err := db.GetContext(ctx, &b, `SELECT * FROM batches WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("batch not found: %w", err)
	}
	return &b, nil
}

// GetVideosByBatch returns all videos belonging to a batch, in submission order.
func (db *DB) GetVideosByBatch(ctx context.Context, batchID string) ([]models.Video, error) {
	var videos []models.Video
	err := db.SelectContext(ctx, &videos,
		`SELECT * FROM videos WHERE batch_id = $1 ORDER BY created_at ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch videos: %w", err)
	}
	return videos, nil
}

// UpdateBatchCounts recalculates the batch's progress counters by querying
// the actual video statuses. Recounting instead of incrementing means the
// counters self-heal if a worker crashed mid-update.
func (db *DB) UpdateBatchCounts(ctx context.Context, batchID string) error {
	query := `
		UPDATE batches SET
			completed_count = (SELECT COUNT(*) FROM videos WHERE batch_id = $1 AND status = 'completed'),
			failed_count = (SELECT COUNT(*) FROM videos WHERE batch_id = $1 AND status = 'failed'),
			status = CASE
				WHEN (SELECT COUNT(*) FROM videos WHERE batch_id = $1 AND status IN ('pending', 'processing')) = 0
					AND (SELECT COUNT(*) FROM videos WHERE batch_id = $1 AND status = 'failed') > 0
					AND (SELECT COUNT(*) FROM videos WHERE batch_id = $1 AND status = 'completed') = 0
				THEN 'failed'
				WHEN (SELECT COUNT(*) FROM videos WHERE batch_id = $1 AND status IN ('pending', 'processing')) = 0
				THEN 'completed'
				ELSE 'processing'
			END,
			updated_at = NOW()
		WHERE id = $1`

	_, err := db.ExecContext(ctx, query, batchID)
	if err != nil {
		return fmt.Errorf("failed to update batch counts: %w", err)
	}
	return nil
}
