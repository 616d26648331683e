// Package mot implements a client for the DVSA MOT history service.
package mot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/config"
	"github.com/garagehq/garage-engine/pkg/models"
)

// Client calls the MOT history API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates an MOT history client with the configured timeout.
func NewClient(cfg *config.MOTConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// StatusError is a non-2xx history response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("MOT history returned status %d", e.StatusCode)
}

func (e *StatusError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type historyResponse struct {
	Registration string `json:"registration"`
	MotTests     []struct {
		CompletedDate string `json:"completedDate"`
		TestResult    string `json:"testResult"`
		ExpiryDate    string `json:"expiryDate"`
		OdometerValue string `json:"odometerValue"`
		OdometerUnit  string `json:"odometerUnit"`
		MotTestNumber string `json:"motTestNumber"`
	} `json:"motTests"`
}

// History fetches the MOT test history for a normalized registration,
// newest first as the service returns them.
func (c *Client) History(ctx context.Context, reg string) ([]models.MOTTest, error) {
	url := fmt.Sprintf("%s/v1/trade/vehicles/registration/%s", c.baseURL, reg)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("MOT history request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var payload historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}

	tests := make([]models.MOTTest, 0, len(payload.MotTests))
	for _, t := range payload.MotTests {
		test := models.MOTTest{
			Result:       t.TestResult,
			OdometerUnit: t.OdometerUnit,
			TestNumber:   t.MotTestNumber,
		}
		if ts, err := time.Parse("2006.01.02 15:04:05", t.CompletedDate); err == nil {
			test.CompletedDate = ts
		}
		if ts, err := time.Parse("2006.01.02", t.ExpiryDate); err == nil {
			test.ExpiryDate = &ts
		}
		if n, err := strconv.Atoi(t.OdometerValue); err == nil {
			test.OdometerValue = n
		}
		tests = append(tests, test)
	}
	return tests, nil
}
