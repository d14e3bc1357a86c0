package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// BaseURL is the Resend API base URL.
	BaseURL = "https://api.resend.com"
)

// Client is a minimal HTTP client for the Resend email API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient constructs a new Resend client with sane defaults.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		baseURL:    BaseURL,
	}
}

// SendRequest is the payload for POST /emails.
type SendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendResponse is the Resend API response for a dispatched email.
type SendResponse struct {
	ID string `json:"id"`
}

// SendEmail dispatches a single HTML email and returns the provider-assigned
// message id.
func (c *Client) SendEmail(ctx context.Context, from, to, subject, html string) (*SendResponse, error) {
	payload, err := json.Marshal(SendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("email send failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result SendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode email response: %w", err)
	}
	return &result, nil
}
