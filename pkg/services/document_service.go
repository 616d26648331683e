package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/config"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/numbering"
	"github.com/garagehq/garage-engine/pkg/registration"
	"github.com/garagehq/garage-engine/pkg/repositories"
)

// DocumentService creates job sheets, estimates and invoices with
// namespace-safe document numbers.
type DocumentService interface {
	// AllocateNextDocumentNumber previews the next number for a document
	// type. The value is recomputed from the live namespace on every call;
	// it is advisory until an insert claims it.
	AllocateNextDocumentNumber(ctx context.Context, docType models.DocumentType) (string, error)

	// CreateDocument assigns the next number and persists the document with
	// its line items. On a numbering race (two concurrent creations reading
	// the same maximum) it recomputes and retries exactly once; a second
	// conflict is a bug signal and surfaces as ErrNumberingConflict.
	CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error)

	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	docs      repositories.DocumentRepository
	numbering config.NumberingConfig
	logger    *zap.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(docs repositories.DocumentRepository, numberingCfg config.NumberingConfig, logger *zap.Logger) DocumentService {
	return &documentService{
		docs:      docs,
		numbering: numberingCfg,
		logger:    logger.Named("document-service"),
	}
}

var _ DocumentService = (*documentService)(nil)

func (s *documentService) schemeFor(docType models.DocumentType) (numbering.Scheme, error) {
	switch docType {
	case models.DocTypeJobSheet:
		return s.numbering.SchemeFor(s.numbering.JobSheetPrefix), nil
	case models.DocTypeEstimate:
		return s.numbering.SchemeFor(s.numbering.EstimatePrefix), nil
	case models.DocTypeInvoice:
		return s.numbering.SchemeFor(s.numbering.InvoicePrefix), nil
	}
	return numbering.Scheme{}, fmt.Errorf("unknown document type %q", docType)
}

func (s *documentService) namespacePrefixes() []string {
	return []string{s.numbering.JobSheetPrefix, s.numbering.EstimatePrefix, s.numbering.InvoicePrefix}
}

func (s *documentService) AllocateNextDocumentNumber(ctx context.Context, docType models.DocumentType) (string, error) {
	scheme, err := s.schemeFor(docType)
	if err != nil {
		return "", err
	}

	existing, err := s.docs.ListNumbersInNamespace(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to scan numbering namespace: %w", err)
	}

	return numbering.NextInNamespace(scheme, s.namespacePrefixes(), existing), nil
}

func (s *documentService) CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if !models.ValidDocumentType(doc.Type) {
		return nil, fmt.Errorf("unknown document type %q", doc.Type)
	}
	doc.Registration = registration.Normalize(doc.Registration)
	if !registration.Valid(doc.Registration) {
		return nil, apperrors.ErrInvalidRegistration
	}
	if doc.IssueDate.IsZero() {
		doc.IssueDate = time.Now()
	}
	doc.Legacy = false
	doc.ComputeTotals()

	// The number scan and the insert are not one atomic step; the unique
	// index on doc_number is what makes the allocation safe. First conflict
	// means another request claimed the number between our scan and insert,
	// so rescan and try once more.
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.AllocateNextDocumentNumber(ctx, doc.Type)
		if err != nil {
			return nil, err
		}
		doc.DocNumber = number

		err = s.docs.CreateWithLineItems(ctx, doc)
		if err == nil {
			s.logger.Info("Created document",
				zap.String("doc_type", string(doc.Type)),
				zap.String("doc_number", doc.DocNumber),
				zap.String("registration", doc.Registration))
			return doc, nil
		}
		if !errors.Is(err, apperrors.ErrNumberingConflict) {
			return nil, err
		}

		s.logger.Warn("Document number conflict, reallocating",
			zap.String("doc_type", string(doc.Type)),
			zap.String("doc_number", number),
			zap.Int("attempt", attempt+1))
	}

	return nil, fmt.Errorf("allocation raced twice for type %q: %w", doc.Type, apperrors.ErrNumberingConflict)
}

func (s *documentService) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return s.docs.Get(ctx, id)
}

func (s *documentService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	// Deleting a document never decrements the sequence: the next
	// allocation re-scans what remains, and max+1 over the remainder is
	// always >= any number already issued.
	return s.docs.Delete(ctx, id)
}
