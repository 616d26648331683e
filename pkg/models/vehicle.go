package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle represents a vehicle known to the garage. Registration is stored
// normalized (uppercase, no whitespace) and is the natural key.
//
// OwnerID is the single canonical owner reference. The legacy system carried
// two overlapping owner columns; here exactly one column is writable and any
// compatibility alias is derived from it.
type Vehicle struct {
	ID           uuid.UUID  `json:"id"`
	Registration string     `json:"registration"`
	Make         string     `json:"make"`
	Model        string     `json:"model"`
	Year         int        `json:"year"`
	Colour       string     `json:"colour"`
	FuelType     string     `json:"fuel_type"`
	MOTStatus    string     `json:"mot_status"`
	MOTExpiry    *time.Time `json:"mot_expiry,omitempty"`
	TaxStatus    string     `json:"tax_status"`
	OwnerID      *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CustomerID is the read-only compatibility alias for OwnerID kept for
// clients of the old API shape.
func (v *Vehicle) CustomerID() *uuid.UUID {
	return v.OwnerID
}

// MOTDueWithin reports whether the vehicle's MOT expires within the given
// window of now. Vehicles without a recorded expiry are never due.
func (v *Vehicle) MOTDueWithin(window time.Duration, now time.Time) bool {
	if v.MOTExpiry == nil {
		return false
	}
	return !v.MOTExpiry.Before(now) && v.MOTExpiry.Sub(now) <= window
}

// MOTTest is one entry from the MOT history service.
type MOTTest struct {
	CompletedDate time.Time  `json:"completed_date"`
	Result        string     `json:"result"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	OdometerValue int        `json:"odometer_value"`
	OdometerUnit  string     `json:"odometer_unit"`
	TestNumber    string     `json:"test_number"`
}
