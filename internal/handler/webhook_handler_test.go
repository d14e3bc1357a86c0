package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmershop/store_api/internal/middleware"
	"github.com/glimmershop/store_api/internal/models"
	"github.com/glimmershop/store_api/internal/service"
)

type stubProcessor struct {
	result    *service.WebhookResult
	err       error
	gotBody   []byte
	gotHeader string
}

func (s *stubProcessor) ProcessWebhook(_ context.Context, rawBody []byte, signature string) (*service.WebhookResult, error) {
	s.gotBody = rawBody
	s.gotHeader = signature
	return s.result, s.err
}

func newWebhookRouter(p *stubProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.CORSMiddleware())
	router.POST("/webhook/ggcheckout", NewWebhookHandler(p, 5*time.Second).HandleGGCheckout)
	return router
}

func postWebhook(router *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/ggcheckout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleGGCheckoutProcessed(t *testing.T) {
	p := &stubProcessor{result: &service.WebhookResult{
		Outcome: service.OutcomeProcessed,
		OrderID: "order-1",
		Status:  models.OrderCompleted,
		Message: "Order completed and account delivered",
	}}
	router := newWebhookRouter(p)

	w := postWebhook(router, `{"transaction_id":"tx-1"}`, map[string]string{"X-Signature": "abc"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "order-1", resp["order_id"])
	assert.Equal(t, "completed", resp["status"])
	assert.Equal(t, "Order completed and account delivered", resp["message"])
	assert.Contains(t, resp, "processing_time_ms")

	assert.Equal(t, `{"transaction_id":"tx-1"}`, string(p.gotBody), "raw bytes passed through untouched")
	assert.Equal(t, "abc", p.gotHeader)
}

func TestHandleGGCheckoutInvalidSignature(t *testing.T) {
	p := &stubProcessor{result: &service.WebhookResult{Outcome: service.OutcomeInvalidSignature}}
	router := newWebhookRouter(p)

	w := postWebhook(router, `{}`, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "Invalid signature", resp["error"])
}

func TestHandleGGCheckoutInvalidPayload(t *testing.T) {
	p := &stubProcessor{result: &service.WebhookResult{
		Outcome: service.OutcomeInvalidPayload,
		Details: []string{"Missing required field: status or payment.status"},
	}}
	router := newWebhookRouter(p)

	w := postWebhook(router, `{}`, nil)

	assert.Equal(t, http.StatusOK, w.Code, "validation failures are acknowledged, not retried")
	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "Invalid payload", resp["error"])
	assert.Equal(t, []any{"Missing required field: status or payment.status"}, resp["details"])
}

func TestHandleGGCheckoutProcessingError(t *testing.T) {
	p := &stubProcessor{err: errors.New("order create failed: connection refused")}
	router := newWebhookRouter(p)

	w := postWebhook(router, `{"transaction_id":"tx-1"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code, "storage failures must not trigger provider retry storms")
	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "ProcessingFailed", resp["error"])
	assert.Equal(t, "order create failed: connection refused", resp["message"])
	assert.Equal(t, "Webhook received but processing failed. Check logs.", resp["details"])
}

func TestHandleGGCheckoutMethodNotAllowed(t *testing.T) {
	router := newWebhookRouter(&stubProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/webhook/ggcheckout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleGGCheckoutCORSPreflight(t *testing.T) {
	router := newWebhookRouter(&stubProcessor{})

	req := httptest.NewRequest(http.MethodOptions, "/webhook/ggcheckout", nil)
	req.Header.Set("Origin", "https://store.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Signature")
}
