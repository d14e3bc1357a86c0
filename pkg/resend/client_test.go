package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail(t *testing.T) {
	var gotAuth string
	var gotReq SendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SendResponse{ID: "msg_123"})
	}))
	defer server.Close()

	client := &Client{
		httpClient: &http.Client{Timeout: time.Second},
		apiKey:     "re_test_key",
		baseURL:    server.URL,
	}

	resp, err := client.SendEmail(context.Background(), "Shop <noreply@example.com>", "buyer@example.com", "Suas Credenciais", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "msg_123", resp.ID)
	assert.Equal(t, "Bearer re_test_key", gotAuth)
	assert.Equal(t, "Shop <noreply@example.com>", gotReq.From)
	assert.Equal(t, []string{"buyer@example.com"}, gotReq.To)
	assert.Equal(t, "Suas Credenciais", gotReq.Subject)
	assert.Equal(t, "<p>hi</p>", gotReq.HTML)
}

func TestSendEmailAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	client := &Client{
		httpClient: &http.Client{Timeout: time.Second},
		apiKey:     "re_test_key",
		baseURL:    server.URL,
	}

	_, err := client.SendEmail(context.Background(), "bad", "buyer@example.com", "s", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "invalid from address")
}
