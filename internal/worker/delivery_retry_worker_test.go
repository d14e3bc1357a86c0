package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/service"
)

type stubLister struct {
	mu      sync.Mutex
	backlog []models.Order
	err     error
}

func (s *stubLister) ListUndelivered(_ context.Context, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.backlog) > limit {
		return s.backlog[:limit], nil
	}
	return s.backlog, nil
}

type stubDeliverer struct {
	mu        sync.Mutex
	delivered []string
	result    func(order *models.Order) *service.DeliveryResult
	err       error
}

func (s *stubDeliverer) Deliver(_ context.Context, order *models.Order, _ *string) (*service.DeliveryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.delivered = append(s.delivered, order.ID)
	if s.result != nil {
		return s.result(order), nil
	}
	return &service.DeliveryResult{
		OrderID: order.ID,
		Status:  models.OrderCompleted,
		Message: "Order completed and account delivered",
	}, nil
}

func TestRunRetriesBacklog(t *testing.T) {
	lister := &stubLister{backlog: []models.Order{
		{ID: "order-1", ProductID: "prod-1", DeliveryStatus: models.DeliveryError},
		{ID: "order-2", ProductID: "prod-1", DeliveryStatus: models.DeliveryError},
	}}
	deliverer := &stubDeliverer{}
	w := NewDeliveryRetryWorker(lister, deliverer, time.Minute, 20)

	w.run(context.Background())

	assert.Equal(t, []string{"order-1", "order-2"}, deliverer.delivered)
}

func TestRunHonorsBatchSize(t *testing.T) {
	lister := &stubLister{backlog: []models.Order{
		{ID: "order-1"}, {ID: "order-2"}, {ID: "order-3"},
	}}
	deliverer := &stubDeliverer{}
	w := NewDeliveryRetryWorker(lister, deliverer, time.Minute, 2)

	w.run(context.Background())

	assert.Len(t, deliverer.delivered, 2)
}

func TestRunSkipsCycleOnListError(t *testing.T) {
	lister := &stubLister{err: errors.New("db down")}
	deliverer := &stubDeliverer{}
	w := NewDeliveryRetryWorker(lister, deliverer, time.Minute, 20)

	w.run(context.Background())

	assert.Empty(t, deliverer.delivered)
}

func TestRunContinuesAfterDeliveryError(t *testing.T) {
	lister := &stubLister{backlog: []models.Order{{ID: "order-1"}, {ID: "order-2"}}}
	deliverer := &stubDeliverer{err: errors.New("claim failed")}
	w := NewDeliveryRetryWorker(lister, deliverer, time.Minute, 20)

	// Must not panic or abort the whole cycle on a single failed retry.
	w.run(context.Background())

	assert.Empty(t, deliverer.delivered)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	lister := &stubLister{}
	deliverer := &stubDeliverer{}
	w := NewDeliveryRetryWorker(lister, deliverer, 5*time.Millisecond, 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "worker did not stop after context cancellation")
	}
}
