package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrNumberingConflict   = errors.New("document number conflict")
	ErrInvalidRegistration = errors.New("invalid vehicle registration")
)

// AmbiguousOwnershipError is returned when reconciliation finds two candidate
// owners with identical support. Both candidates are carried so the operator
// can choose; the service never applies a tie on its own.
type AmbiguousOwnershipError struct {
	Registration string
	CandidateIDs []string
}

func (e *AmbiguousOwnershipError) Error() string {
	return fmt.Sprintf("ambiguous ownership for %s: %d tied candidates", e.Registration, len(e.CandidateIDs))
}
