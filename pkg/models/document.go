package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType tags the kind of a document. All three types draw numbers
// from one shared namespace.
type DocumentType string

const (
	DocTypeJobSheet DocumentType = "job_sheet"
	DocTypeEstimate DocumentType = "estimate"
	DocTypeInvoice  DocumentType = "invoice"
)

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocTypeJobSheet, DocTypeEstimate, DocTypeInvoice:
		return true
	}
	return false
}

// Document is a job sheet, estimate or invoice. DocNumber is assigned once
// at creation and never reassigned. Registration is stored normalized but
// legacy imports may carry free-text forms, so comparisons normalize again
// at query time. Legacy marks imported rows that are exempt from the
// uniqueness constraint on DocNumber.
type Document struct {
	ID           uuid.UUID          `json:"id"`
	Type         DocumentType       `json:"type"`
	DocNumber    string             `json:"doc_number"`
	IssueDate    time.Time          `json:"issue_date"`
	CustomerID   *uuid.UUID         `json:"customer_id,omitempty"`
	CustomerName string             `json:"customer_name,omitempty"`
	Registration string             `json:"registration"`
	NetTotal     decimal.Decimal    `json:"net_total"`
	TaxTotal     decimal.Decimal    `json:"tax_total"`
	GrandTotal   decimal.Decimal    `json:"grand_total"`
	Legacy       bool               `json:"legacy,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	LineItems    []DocumentLineItem `json:"line_items,omitempty"`
}

// DocumentLineItem belongs to exactly one document and is deleted with it.
type DocumentLineItem struct {
	ID          uuid.UUID       `json:"id"`
	DocumentID  uuid.UUID       `json:"document_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"` // percentage, e.g. 20 for 20% VAT
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ComputeTotals recomputes each line total and the document totals from the
// line items. Line total is qty * unit price before tax.
func (d *Document) ComputeTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for i := range d.LineItems {
		li := &d.LineItems[i]
		li.LineTotal = li.Quantity.Mul(li.UnitPrice)
		net = net.Add(li.LineTotal)
		tax = tax.Add(li.LineTotal.Mul(li.TaxRate).Div(decimal.NewFromInt(100)))
	}
	d.NetTotal = net
	d.TaxTotal = tax
	d.GrandTotal = net.Add(tax)
}

// DocumentRef is the slice of a document the reconciler needs: who the
// document says the customer was, and when it was issued.
type DocumentRef struct {
	CustomerID   *uuid.UUID
	CustomerName string
	IssueDate    time.Time
}

// OwnershipCandidate is a (customer, vehicle) pairing inferred from document
// history. Derived during reconciliation, never persisted.
type OwnershipCandidate struct {
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	DocumentCount int        `json:"document_count"`
	MostRecent    time.Time  `json:"most_recent"`
}

// SuspiciousOwner flags a customer whose assigned-vehicle count exceeds the
// audit threshold, with how much of that fleet has no document history.
// Surfaces bulk mis-import artifacts for operator review.
type SuspiciousOwner struct {
	CustomerID             uuid.UUID `json:"customer_id"`
	CustomerName           string    `json:"customer_name"`
	AssignedVehicles       int       `json:"assigned_vehicles"`
	VehiclesWithHistory    int       `json:"vehicles_with_history"`
	VehiclesWithoutHistory int       `json:"vehicles_without_history"`
}
