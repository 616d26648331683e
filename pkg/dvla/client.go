// Package dvla implements a client for the DVLA vehicle enquiry service.
package dvla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/config"
)

// VehicleInfo is the subset of the enquiry response garage-engine uses.
type VehicleInfo struct {
	Registration      string
	Make              string
	Model             string
	YearOfManufacture int
	Colour            string
	FuelType          string
	MOTStatus         string
	MOTExpiry         *time.Time
	TaxStatus         string
	TaxDueDate        *time.Time
}

// Client calls the vehicle enquiry API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a vehicle enquiry client with the configured timeout.
func NewClient(cfg *config.DVLAConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// StatusError is a non-2xx enquiry response. Server-side failures are
// retryable; client-side rejections are not.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vehicle enquiry returned status %d", e.StatusCode)
}

func (e *StatusError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type enquiryRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
}

type enquiryResponse struct {
	RegistrationNumber string `json:"registrationNumber"`
	Make               string `json:"make"`
	YearOfManufacture  int    `json:"yearOfManufacture"`
	Colour             string `json:"colour"`
	FuelType           string `json:"fuelType"`
	MotStatus          string `json:"motStatus"`
	MotExpiryDate      string `json:"motExpiryDate"`
	TaxStatus          string `json:"taxStatus"`
	TaxDueDate         string `json:"taxDueDate"`
}

// Lookup fetches vehicle details for a normalized registration. An unknown
// registration maps to apperrors.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, reg string) (*VehicleInfo, error) {
	body, err := json.Marshal(enquiryRequest{RegistrationNumber: reg})
	if err != nil {
		return nil, fmt.Errorf("failed to encode enquiry request: %w", err)
	}

	url := c.baseURL + "/vehicle-enquiry/v1/vehicles"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build enquiry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vehicle enquiry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var payload enquiryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode enquiry response: %w", err)
	}

	return &VehicleInfo{
		Registration:      payload.RegistrationNumber,
		Make:              payload.Make,
		YearOfManufacture: payload.YearOfManufacture,
		Colour:            payload.Colour,
		FuelType:          payload.FuelType,
		MOTStatus:         payload.MotStatus,
		MOTExpiry:         parseDate(payload.MotExpiryDate),
		TaxStatus:         payload.TaxStatus,
		TaxDueDate:        parseDate(payload.TaxDueDate),
	}, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
