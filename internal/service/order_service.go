package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/utils"
)

// OrderQueryStore is the read surface for storefront order lookups.
type OrderQueryStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Order, error)
	ListByCustomerEmail(ctx context.Context, email string, limit, offset int) ([]models.Order, int, error)
}

// OrderService serves read-only order views for the storefront: the thanks
// page polls by external id after checkout redirect, the purchase-history
// page lists by customer email. Credentials never leave this service, the
// order JSON shape hides the account reference and raw payload.
type OrderService struct {
	orders OrderQueryStore
}

// NewOrderService constructs an OrderService.
func NewOrderService(orders OrderQueryStore) *OrderService {
	return &OrderService{orders: orders}
}

// GetByExternalID returns the order for a provider transaction id, or
// utils.ErrOrderNotFound.
func (s *OrderService) GetByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	order, err := s.orders.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListByCustomerEmail returns one page of a customer's purchase history,
// newest first, with the total row count.
func (s *OrderService) ListByCustomerEmail(ctx context.Context, email string, page, limit int) ([]models.Order, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByCustomerEmail(ctx, email, limit, (page-1)*limit)
}
