package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/utils"
	"github.com/glimmershop/store_api/pkg/ggcheckout"
)

// WebhookOutcome classifies how an inbound event was answered.
type WebhookOutcome string

const (
	OutcomeProcessed        WebhookOutcome = "processed"
	OutcomeInvalidPayload   WebhookOutcome = "invalid_payload"
	OutcomeInvalidSignature WebhookOutcome = "invalid_signature"
)

// WebhookResult is the processing outcome returned to the HTTP layer.
type WebhookResult struct {
	Outcome WebhookOutcome
	OrderID string
	Status  models.OrderStatus
	Message string
	Details []string
}

// WebhookLogStore is the audit-ledger surface of the pipeline.
type WebhookLogStore interface {
	Create(ctx context.Context, payload json.RawMessage) (string, error)
	Finalize(ctx context.Context, id string, processed bool, errorMessage *string, orderID *string) error
}

// Deliverer runs the inventory claim for a completed order.
type Deliverer interface {
	Deliver(ctx context.Context, order *models.Order, soldTo *string) (*DeliveryResult, error)
}

// WebhookService runs the full GGCheckout pipeline: ledger pre-log,
// signature gate, payload normalization, and idempotent order
// reconciliation keyed by the external transaction id.
type WebhookService struct {
	logs          WebhookLogStore
	orders        OrderStore
	fulfillment   Deliverer
	webhookSecret string
}

// NewWebhookService constructs a WebhookService. An empty webhookSecret
// disables signature verification.
func NewWebhookService(logs WebhookLogStore, orders OrderStore, fulfillment Deliverer, webhookSecret string) *WebhookService {
	return &WebhookService{
		logs:          logs,
		orders:        orders,
		fulfillment:   fulfillment,
		webhookSecret: webhookSecret,
	}
}

// ProcessWebhook ingests one raw webhook delivery. Invalid payloads and
// signature failures are reported through the result, not the error: only
// ledger and storage failures come back as errors, and by then the event is
// already recorded for manual remediation whenever possible.
func (s *WebhookService) ProcessWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	var payload ggcheckout.Payload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		// Not valid JSON. Still ledger it: rejected events must stay auditable.
		if logID, logErr := s.logs.Create(ctx, rawMessageOrNull(rawBody)); logErr == nil {
			s.finalize(ctx, logID, false, strPtr("invalid JSON body: "+err.Error()), nil)
		}
		return &WebhookResult{
			Outcome: OutcomeInvalidPayload,
			Details: []string{"invalid JSON body"},
		}, nil
	}

	// Ledger pre-log. Without an audit trail the pipeline must not proceed.
	logID, err := s.logs.Create(ctx, json.RawMessage(rawBody))
	if err != nil {
		return nil, fmt.Errorf("webhook ledger write failed: %w", err)
	}

	// Signature gate. The secret being configured makes verification
	// mandatory: a missing header only passes when the payload carries the
	// legacy top-level signature field instead.
	if s.webhookSecret != "" {
		if signature == "" {
			signature = payload.Signature
		}
		if !ggcheckout.VerifySignature(rawBody, signature, s.webhookSecret) {
			log.Warn().Str("webhook_log_id", logID).Msg("Webhook rejected: invalid signature")
			s.finalize(ctx, logID, false, strPtr("invalid_signature"), nil)
			return &WebhookResult{Outcome: OutcomeInvalidSignature}, nil
		}
	}

	event, err := ggcheckout.Normalize(&payload)
	if err != nil {
		var verr *ggcheckout.ValidationError
		if errors.As(err, &verr) {
			log.Warn().Strs("errors", verr.Details).Msg("Webhook rejected: invalid payload")
			s.finalize(ctx, logID, false, strPtr(verr.Error()), nil)
			return &WebhookResult{Outcome: OutcomeInvalidPayload, Details: verr.Details}, nil
		}
		s.finalize(ctx, logID, false, strPtr(err.Error()), nil)
		return nil, err
	}

	result, err := s.reconcile(ctx, event, rawBody)
	if err != nil {
		s.finalize(ctx, logID, false, strPtr(err.Error()), nil)
		return nil, err
	}

	s.finalize(ctx, logID, true, nil, &result.OrderID)
	return result, nil
}

// reconcile applies the order state machine for one normalized event. The
// transition table is evaluated strictly in order; the already-delivered
// check comes first so replays and out-of-order deliveries can never claim a
// second account.
func (s *WebhookService) reconcile(ctx context.Context, event *ggcheckout.Event, rawBody []byte) (*WebhookResult, error) {
	incoming := models.OrderStatus(event.Status)

	// Two passes at most: a lost insert race falls through to the update path.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.orders.GetByExternalID(ctx, event.ExternalID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order lookup failed: %w", err)
		}

		if existing != nil {
			return s.reconcileExisting(ctx, existing, event, incoming)
		}

		order := newOrderFromEvent(event, incoming, rawBody)
		if err := s.orders.Create(ctx, order); err != nil {
			if errors.Is(err, utils.ErrDuplicateOrder) {
				// Concurrent first sight of the same external id; the other
				// delivery won the insert. Re-read and treat as existing.
				continue
			}
			return nil, fmt.Errorf("order create failed: %w", err)
		}

		log.Info().
			Str("order_id", order.ID).
			Str("external_id", event.ExternalID).
			Str("status", string(incoming)).
			Msg("Order created")

		if incoming == models.OrderCompleted {
			delivery, err := s.fulfillment.Deliver(ctx, order, userIDPtr(event))
			if err != nil {
				return nil, err
			}
			return resultFromDelivery(delivery), nil
		}

		return &WebhookResult{
			Outcome: OutcomeProcessed,
			OrderID: order.ID,
			Status:  incoming,
			Message: fmt.Sprintf("Order created with status: %s", incoming),
		}, nil
	}

	return nil, utils.ErrDuplicateOrder
}

// reconcileExisting handles redelivered or follow-up events for an order that
// is already on file.
func (s *WebhookService) reconcileExisting(ctx context.Context, existing *models.Order, event *ggcheckout.Event, incoming models.OrderStatus) (*WebhookResult, error) {
	// Exactly-once delivery: a finished order absorbs any replay.
	if existing.Status == models.OrderCompleted && existing.DeliveryStatus == models.DeliveryDelivered {
		log.Info().
			Str("order_id", existing.ID).
			Str("external_id", existing.ExternalID).
			Msg("Duplicate webhook for delivered order, ignoring")
		return &WebhookResult{
			Outcome: OutcomeProcessed,
			OrderID: existing.ID,
			Status:  existing.Status,
			Message: "Order already processed (idempotent response)",
		}, nil
	}

	// A late completion event (e.g. "approved" after "pending") re-attempts
	// delivery against the existing order.
	if incoming == models.OrderCompleted && existing.Status != models.OrderCompleted {
		delivery, err := s.fulfillment.Deliver(ctx, existing, userIDPtr(event))
		if err != nil {
			return nil, err
		}
		return resultFromDelivery(delivery), nil
	}

	if err := s.orders.UpdateStatus(ctx, existing.ID, incoming); err != nil {
		return nil, fmt.Errorf("order status update failed: %w", err)
	}
	return &WebhookResult{
		Outcome: OutcomeProcessed,
		OrderID: existing.ID,
		Status:  incoming,
		Message: "Order status updated",
	}, nil
}

// finalize records the pipeline outcome in the ledger. The ledger is a side
// channel; failures here are logged but never fail the event.
func (s *WebhookService) finalize(ctx context.Context, logID string, processed bool, errorMessage *string, orderID *string) {
	if err := s.logs.Finalize(ctx, logID, processed, errorMessage, orderID); err != nil {
		log.Error().Err(err).Str("webhook_log_id", logID).Msg("Failed to finalize webhook log")
	}
}

func newOrderFromEvent(event *ggcheckout.Event, status models.OrderStatus, rawBody []byte) *models.Order {
	order := &models.Order{
		ExternalID:       event.ExternalID,
		ProductID:        event.ProductID,
		Currency:         event.Currency,
		Status:           status,
		DeliveryStatus:   models.DeliveryPending,
		CustomerEmail:    optionalStr(event.CustomerEmail),
		CustomerName:     optionalStr(event.CustomerName),
		CustomerDocument: optionalStr(event.CustomerDocument),
		CustomerPhone:    optionalStr(event.CustomerPhone),
		RawPayload:       json.RawMessage(rawBody),
	}
	if event.Amount > 0 {
		amount := event.Amount
		order.Amount = &amount
	}
	return order
}

func resultFromDelivery(d *DeliveryResult) *WebhookResult {
	return &WebhookResult{
		Outcome: OutcomeProcessed,
		OrderID: d.OrderID,
		Status:  d.Status,
		Message: d.Message,
	}
}

func userIDPtr(event *ggcheckout.Event) *string {
	return optionalStr(event.UserID)
}

func optionalStr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func strPtr(v string) *string {
	return &v
}

// rawMessageOrNull keeps the ledger insert valid when the body is not JSON;
// the payload column is jsonb, so the raw bytes are wrapped as a JSON string.
func rawMessageOrNull(rawBody []byte) json.RawMessage {
	encoded, err := json.Marshal(string(rawBody))
	if err != nil {
		return json.RawMessage(`null`)
	}
	return json.RawMessage(encoded)
}
