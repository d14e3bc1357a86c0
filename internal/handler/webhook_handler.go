package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/service"
)

// WebhookHandler handles incoming GGCheckout payment webhooks.
type WebhookHandler struct {
	processor interface {
		ProcessWebhook(ctx context.Context, rawBody []byte, signature string) (*service.WebhookResult, error)
	}
	processTimeout time.Duration
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(
	processor interface {
		ProcessWebhook(ctx context.Context, rawBody []byte, signature string) (*service.WebhookResult, error)
	},
	processTimeout time.Duration,
) *WebhookHandler {
	return &WebhookHandler{processor: processor, processTimeout: processTimeout}
}

// HandleGGCheckout handles POST /webhook/ggcheckout.
//
// Every outcome except a signature failure is acknowledged with 200,
// including validation and processing failures: those will not fix
// themselves on redelivery, and a non-2xx answer would only trigger provider
// retry storms. Processing is bounded by a per-event timeout; the external
// transaction id makes expired events safe to redeliver.
func (h *WebhookHandler) HandleGGCheckout(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read webhook body")
		c.JSON(http.StatusOK, gin.H{
			"ok":                 false,
			"error":              "Invalid payload",
			"details":            []string{"unreadable request body"},
			"processing_time_ms": elapsedMs(start),
		})
		return
	}

	log.Info().
		Str("content_type", c.GetHeader("Content-Type")).
		Str("user_agent", c.GetHeader("User-Agent")).
		Bool("has_signature", c.GetHeader("X-Signature") != "").
		Int("body_bytes", len(body)).
		Msg("Webhook received")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.processTimeout)
	defer cancel()

	result, err := h.processor.ProcessWebhook(ctx, body, c.GetHeader("X-Signature"))
	if err != nil {
		// Acknowledge and keep the error in the ledger and logs; redelivery
		// is guarded by the idempotency key.
		log.Error().Err(err).Msg("Webhook processing failed")
		c.JSON(http.StatusOK, gin.H{
			"ok":                 false,
			"error":              "ProcessingFailed",
			"message":            err.Error(),
			"details":            "Webhook received but processing failed. Check logs.",
			"processing_time_ms": elapsedMs(start),
		})
		return
	}

	switch result.Outcome {
	case service.OutcomeInvalidSignature:
		c.JSON(http.StatusUnauthorized, gin.H{
			"ok":    false,
			"error": "Invalid signature",
		})
	case service.OutcomeInvalidPayload:
		c.JSON(http.StatusOK, gin.H{
			"ok":      false,
			"error":   "Invalid payload",
			"details": result.Details,
		})
	default:
		processingTime := elapsedMs(start)
		log.Info().
			Str("order_id", result.OrderID).
			Str("status", string(result.Status)).
			Int64("processing_time_ms", processingTime).
			Msg("Webhook processed")
		c.JSON(http.StatusOK, gin.H{
			"ok":                 true,
			"order_id":           result.OrderID,
			"status":             result.Status,
			"message":            result.Message,
			"processing_time_ms": processingTime,
		})
	}
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
