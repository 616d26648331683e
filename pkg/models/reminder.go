package models

import (
	"time"

	"github.com/google/uuid"
)

// ReminderStatus records the outcome of one reminder send attempt.
type ReminderStatus string

const (
	ReminderSent   ReminderStatus = "sent"
	ReminderFailed ReminderStatus = "failed"
)

// Reminder is one outbound MOT reminder logged against a vehicle. The log
// doubles as the dedupe guard: a vehicle already reminded inside the
// critical window is skipped on the next pass.
type Reminder struct {
	ID           uuid.UUID      `json:"id"`
	VehicleID    uuid.UUID      `json:"vehicle_id"`
	CustomerID   uuid.UUID      `json:"customer_id"`
	Phone        string         `json:"phone"`
	Body         string         `json:"body"`
	Status       ReminderStatus `json:"status"`
	ProviderSID  string         `json:"provider_sid,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	SentAt       time.Time      `json:"sent_at"`
}
