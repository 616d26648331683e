// Package messaging implements a Twilio-style outbound SMS client.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/garagehq/garage-engine/pkg/config"
)

// Client sends messages through the provider's REST API.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

// NewClient creates a messaging client with the configured timeout.
func NewClient(cfg *config.MessagingConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		http:       &http.Client{Timeout: cfg.Timeout},
	}
}

// StatusError is a non-2xx provider response carrying the provider's error
// message when one was returned.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("message send returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("message send returned status %d", e.StatusCode)
}

func (e *StatusError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type sendResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// Send delivers one message and returns the provider SID.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("message send failed: %w", err)
	}
	defer resp.Body.Close()

	var payload sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("failed to decode send response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Message: payload.Message}
	}
	return payload.SID, nil
}
