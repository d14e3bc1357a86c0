package models

import (
	"encoding/json"
	"time"
)

// WebhookLog is the append-only audit record of one received webhook. It is
// inserted before any validation so that malformed or rejected events remain
// auditable, updated exactly once when the pipeline finishes, and never
// deleted.
type WebhookLog struct {
	ID              string          `db:"id"`
	Payload         json.RawMessage `db:"payload"`
	Processed       bool            `db:"processed"`
	ProcessingError *string         `db:"processing_error"`
	OrderID         *string         `db:"order_id"`
	CreatedAt       time.Time       `db:"created_at"`
	ProcessedAt     *time.Time      `db:"processed_at"`
}
