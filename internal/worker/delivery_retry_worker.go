package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/service"
)

// UndeliveredLister returns orders whose payment completed but whose
// delivery failed.
type UndeliveredLister interface {
	ListUndelivered(ctx context.Context, limit int) ([]models.Order, error)
}

// DeliveryRetryWorker periodically re-attempts fulfillment for orders stuck
// in delivery_status=error, picking them up once inventory is replenished.
// The webhook pipeline itself never blocks on this; it is the out-of-band
// resolution of the fulfillment backlog.
type DeliveryRetryWorker struct {
	orders      UndeliveredLister
	fulfillment service.Deliverer
	interval    time.Duration
	batchSize   int
}

// NewDeliveryRetryWorker constructs a DeliveryRetryWorker.
func NewDeliveryRetryWorker(
	orders UndeliveredLister,
	fulfillment service.Deliverer,
	interval time.Duration,
	batchSize int,
) *DeliveryRetryWorker {
	return &DeliveryRetryWorker{
		orders:      orders,
		fulfillment: fulfillment,
		interval:    interval,
		batchSize:   batchSize,
	}
}

// Start begins the periodic retry loop until context is canceled.
func (w *DeliveryRetryWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting delivery retry worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Delivery retry worker stopped")
			return
		}
	}
}

func (w *DeliveryRetryWorker) run(ctx context.Context) {
	orders, err := w.orders.ListUndelivered(ctx, w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list undelivered orders")
		return
	}
	if len(orders) == 0 {
		return
	}
	log.Info().Int("count", len(orders)).Msg("Retrying failed deliveries")

	for i := range orders {
		// Respect cancellation between items
		select {
		case <-ctx.Done():
			return
		default:
			w.retryOrder(ctx, &orders[i])
		}
	}
}

func (w *DeliveryRetryWorker) retryOrder(ctx context.Context, order *models.Order) {
	result, err := w.fulfillment.Deliver(ctx, order, nil)
	if err != nil {
		log.Error().
			Err(err).
			Str("order_id", order.ID).
			Msg("Delivery retry failed")
		return
	}
	if result.Status == models.OrderCompleted {
		log.Info().
			Str("order_id", order.ID).
			Str("account_id", result.AccountID).
			Msg("Backlogged order delivered")
	}
}
