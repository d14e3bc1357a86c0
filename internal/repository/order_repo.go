package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/utils"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pqUniqueViolation = "23505"

// OrderRepository handles data access for orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order row and fills in its generated id. A second
// insert for the same external_id loses to the unique constraint and returns
// utils.ErrDuplicateOrder; the caller falls back to the update path.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	const q = `
        INSERT INTO orders (
            external_id, product_id, amount, currency, status, delivery_status,
            customer_email, customer_name, customer_document, customer_phone,
            raw_payload, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8, $9, $10,
            $11, NOW(), NOW()
        ) RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, q,
		order.ExternalID, order.ProductID, order.Amount, order.Currency, order.Status, order.DeliveryStatus,
		order.CustomerEmail, order.CustomerName, order.CustomerDocument, order.CustomerPhone,
		nullableJSON(order.RawPayload),
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return utils.ErrDuplicateOrder
		}
		return err
	}
	return nil
}

// GetByExternalID returns the order for a provider transaction id.
func (r *OrderRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	const q = `SELECT * FROM orders WHERE external_id = $1 LIMIT 1`

	var o models.Order
	if err := r.db.GetContext(ctx, &o, q, externalID); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID returns the order with the given internal id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	const q = `SELECT * FROM orders WHERE id = $1 LIMIT 1`

	var o models.Order
	if err := r.db.GetContext(ctx, &o, q, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus updates only the lifecycle status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	const q = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, id, status)
	return err
}

// BeginDelivery conditionally transitions an order to delivering. It returns
// false when the order is already delivered or another delivery is in
// flight; holding this transition is what makes delivery exactly-once under
// concurrent redeliveries and the retry worker.
func (r *OrderRepository) BeginDelivery(ctx context.Context, id string) (bool, error) {
	const q = `
        UPDATE orders SET
            delivery_status = 'delivering',
            updated_at = NOW()
        WHERE id = $1 AND delivery_status IN ('pending', 'error')`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkDelivered records a successful credential hand-over: order completed,
// delivery done, account attached, delivery timestamps set. Only the holder
// of the delivering transition may write it.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id string, accountID string) error {
	const q = `
        UPDATE orders SET
            status = 'completed',
            delivery_status = 'delivered',
            account_id = $2,
            error_message = NULL,
            delivered_at = NOW(),
            completed_at = NOW(),
            updated_at = NOW()
        WHERE id = $1 AND delivery_status = 'delivering'`

	_, err := r.db.ExecContext(ctx, q, id, accountID)
	return err
}

// MarkDeliveryFailed records a fulfillment failure. The payment event itself
// was processed; the order stays queryable as a backlog item.
func (r *OrderRepository) MarkDeliveryFailed(ctx context.Context, id string, reason string) error {
	const q = `
        UPDATE orders SET
            status = 'failed',
            delivery_status = 'error',
            error_message = $2,
            updated_at = NOW()
        WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, id, reason)
	return err
}

// ListByCustomerEmail returns a page of orders for a customer, newest first,
// together with the total count for pagination.
func (r *OrderRepository) ListByCustomerEmail(ctx context.Context, email string, limit, offset int) ([]models.Order, int, error) {
	const q = `
        SELECT * FROM orders
        WHERE customer_email = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`

	var list []models.Order
	if err := r.db.SelectContext(ctx, &list, q, email, limit, offset); err != nil {
		return nil, 0, err
	}

	const countQ = `SELECT COUNT(*) FROM orders WHERE customer_email = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQ, email); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListUndelivered returns orders whose payment completed but whose delivery
// failed, oldest first. The delivery retry worker re-attempts these once
// stock is replenished.
func (r *OrderRepository) ListUndelivered(ctx context.Context, limit int) ([]models.Order, error) {
	const q = `
        SELECT * FROM orders
        WHERE delivery_status = 'error'
        ORDER BY created_at ASC
        LIMIT $1`

	var list []models.Order
	if err := r.db.SelectContext(ctx, &list, q, limit); err != nil {
		return nil, err
	}
	return list, nil
}

// nullableJSON converts an empty raw message to nil for proper NULL handling
// in PostgreSQL.
func nullableJSON(v []byte) interface{} {
	if len(v) == 0 {
		return nil
	}
	return v
}
