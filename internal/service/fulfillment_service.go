package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/utils"
)

// claimAttempts bounds how often a claim is re-selected after losing the row
// race to a concurrent webhook before the order is parked as undeliverable.
const claimAttempts = 3

// OrderStore is the order persistence surface the fulfillment and webhook
// pipeline needs.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByExternalID(ctx context.Context, externalID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	BeginDelivery(ctx context.Context, id string) (bool, error)
	MarkDelivered(ctx context.Context, id string, accountID string) error
	MarkDeliveryFailed(ctx context.Context, id string, reason string) error
}

// AccountStore is the inventory surface used for claims.
type AccountStore interface {
	Claim(ctx context.Context, productID string, soldTo *string) (*models.Account, error)
	CountAvailable(ctx context.Context, productID string) (int, error)
}

// Notifier delivers claimed credentials to the customer. Implementations
// must treat delivery as best-effort; the caller swallows every error.
type Notifier interface {
	SendCredentials(ctx context.Context, toEmail string, toName *string, account *models.Account) error
}

// StockInvalidator drops a cached stock count after a claim.
type StockInvalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// DeliveryResult reports the outcome of one delivery attempt. A fulfillment
// failure (no stock, lost claim) is a result, not an error: the payment event
// was validly processed and the webhook is still acknowledged.
type DeliveryResult struct {
	OrderID   string
	Status    models.OrderStatus
	Message   string
	AccountID string
}

// FulfillmentService claims exactly one available account per completed
// order and hands the credentials to the customer. It is the sole writer of
// account status transitions.
type FulfillmentService struct {
	orders   OrderStore
	accounts AccountStore
	notifier Notifier
	stock    StockInvalidator
}

// NewFulfillmentService constructs a FulfillmentService. notifier and stock
// may be nil, which disables credential emails and cache invalidation
// respectively.
func NewFulfillmentService(orders OrderStore, accounts AccountStore, notifier Notifier, stock StockInvalidator) *FulfillmentService {
	return &FulfillmentService{
		orders:   orders,
		accounts: accounts,
		notifier: notifier,
		stock:    stock,
	}
}

// Deliver claims one account for the order's product and marks the order
// delivered. soldTo is the storefront user id from the webhook, when known.
// Out-of-stock and exhausted claim races park the order as failed/error and
// return a failed DeliveryResult; only storage errors are returned as errors.
func (s *FulfillmentService) Deliver(ctx context.Context, order *models.Order, soldTo *string) (*DeliveryResult, error) {
	// The order row is the delivery lock: the conditional pending/error ->
	// delivering transition admits exactly one attempt at a time, so parallel
	// redeliveries and the retry worker cannot each claim an account for the
	// same order.
	won, err := s.orders.BeginDelivery(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to start delivery for order %s: %w", order.ID, err)
	}
	if !won {
		log.Info().
			Str("order_id", order.ID).
			Msg("Delivery already done or in flight, ignoring")
		return &DeliveryResult{
			OrderID: order.ID,
			Status:  models.OrderCompleted,
			Message: "Order already processed (idempotent response)",
		}, nil
	}

	account, err := s.claim(ctx, order.ProductID, soldTo)
	if err != nil {
		if errors.Is(err, utils.ErrOutOfStock) {
			msg := fmt.Sprintf("no_stock_for_product_id: %s", order.ProductID)
			log.Warn().Str("order_id", order.ID).Str("product_id", order.ProductID).Msg("No stock for product")
			if err := s.orders.MarkDeliveryFailed(ctx, order.ID, msg); err != nil {
				return nil, err
			}
			return &DeliveryResult{OrderID: order.ID, Status: models.OrderFailed, Message: msg}, nil
		}

		msg := fmt.Sprintf("failed to claim account: %v", err)
		if markErr := s.orders.MarkDeliveryFailed(ctx, order.ID, msg); markErr != nil {
			log.Error().Err(markErr).Str("order_id", order.ID).Msg("Failed to record claim failure")
		}
		return nil, err
	}

	if err := s.orders.MarkDelivered(ctx, order.ID, account.ID); err != nil {
		// The account is sold but the order row does not reference it yet.
		// Leave the claim in place; the ledger keeps the event for manual
		// remediation, a rollback here could double-sell on retry.
		return nil, fmt.Errorf("account %s claimed but order update failed: %w", account.ID, err)
	}

	log.Info().
		Str("order_id", order.ID).
		Str("account_id", account.ID).
		Str("product_id", order.ProductID).
		Msg("Order completed and account delivered")

	s.notify(ctx, order, account)

	if s.stock != nil {
		if err := s.stock.Invalidate(ctx, order.ProductID); err != nil {
			log.Warn().Err(err).Str("product_id", order.ProductID).Msg("Stock cache invalidation failed")
		}
	}

	return &DeliveryResult{
		OrderID:   order.ID,
		Status:    models.OrderCompleted,
		Message:   "Order completed and account delivered",
		AccountID: account.ID,
	}, nil
}

// claim runs the conditional available->sold transition, re-selecting a few
// times when the race is lost to a concurrent claim. Empty stock is reported
// as utils.ErrOutOfStock.
func (s *FulfillmentService) claim(ctx context.Context, productID string, soldTo *string) (*models.Account, error) {
	for attempt := 1; attempt <= claimAttempts; attempt++ {
		account, err := s.accounts.Claim(ctx, productID, soldTo)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, utils.ErrClaimRaceLost) {
			return nil, err
		}

		// Lost the conditional update. Distinguish transient contention from
		// genuinely empty stock before retrying.
		available, countErr := s.accounts.CountAvailable(ctx, productID)
		if countErr != nil {
			return nil, countErr
		}
		if available == 0 {
			return nil, utils.ErrOutOfStock
		}
		log.Debug().
			Str("product_id", productID).
			Int("attempt", attempt).
			Int("available", available).
			Msg("Claim race lost, retrying")
	}
	return nil, utils.ErrOutOfStock
}

// notify sends the credentials email. Failures are logged and swallowed: the
// order is already durably delivered, losing the notification is a support
// issue, not a consistency issue.
func (s *FulfillmentService) notify(ctx context.Context, order *models.Order, account *models.Account) {
	if s.notifier == nil || order.CustomerEmail == nil || *order.CustomerEmail == "" {
		return
	}
	if err := s.notifier.SendCredentials(ctx, *order.CustomerEmail, order.CustomerName, account); err != nil {
		log.Error().
			Err(err).
			Str("order_id", order.ID).
			Str("customer_email", *order.CustomerEmail).
			Msg("Failed to send credentials email")
	}
}
