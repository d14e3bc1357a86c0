package repository

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/glimmershop/store_api/internal/models"
)

// WebhookLogRepository handles data access for the webhook audit ledger.
// Rows are inserted before any validation and updated exactly once when the
// pipeline finishes; they are never deleted.
type WebhookLogRepository struct {
	db *sqlx.DB
}

// NewWebhookLogRepository creates a new WebhookLogRepository.
func NewWebhookLogRepository(db *sqlx.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

// Create inserts a ledger entry for a raw inbound payload and returns its id.
func (r *WebhookLogRepository) Create(ctx context.Context, payload json.RawMessage) (string, error) {
	const q = `
        INSERT INTO webhook_logs (payload, processed, created_at)
        VALUES ($1, false, NOW())
        RETURNING id`

	var id string
	if err := r.db.QueryRowContext(ctx, q, []byte(payload)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// Finalize records the processing outcome of a ledger entry. It is called
// exactly once per entry, after the pipeline finishes.
func (r *WebhookLogRepository) Finalize(ctx context.Context, id string, processed bool, errorMessage *string, orderID *string) error {
	const q = `
        UPDATE webhook_logs SET
            processed = $2,
            processing_error = $3,
            order_id = $4,
            processed_at = NOW()
        WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, id, processed, errorMessage, orderID)
	return err
}

// GetByID returns a single ledger entry. Used for diagnostics.
func (r *WebhookLogRepository) GetByID(ctx context.Context, id string) (*models.WebhookLog, error) {
	const q = `SELECT * FROM webhook_logs WHERE id = $1 LIMIT 1`

	var entry models.WebhookLog
	if err := r.db.GetContext(ctx, &entry, q, id); err != nil {
		return nil, err
	}
	return &entry, nil
}
