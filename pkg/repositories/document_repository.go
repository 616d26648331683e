package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/database"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/registration"
)

// DocumentRepository defines the interface for document data access.
type DocumentRepository interface {
	// CreateWithLineItems inserts a document and its line items in one
	// transaction. A duplicate document number surfaces as
	// apperrors.ErrNumberingConflict so the allocator can retry with a
	// fresh number.
	CreateWithLineItems(ctx context.Context, doc *models.Document) error

	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListNumbersInNamespace returns every document number ever issued,
	// across all document types and including legacy rows. The allocator's
	// max-scan must see the whole namespace or it will re-issue numbers
	// already held by a sibling type.
	ListNumbersInNamespace(ctx context.Context) ([]string, error)

	// ListRefsByRegistration returns the customer reference and issue date
	// of every document whose normalized registration matches.
	ListRefsByRegistration(ctx context.Context, reg string) ([]models.DocumentRef, error)
}

type documentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *database.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) CreateWithLineItems(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.Registration = registration.Normalize(doc.Registration)
	doc.CreatedAt = time.Now()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO documents (id, doc_type, doc_number, issue_date, customer_id, customer_name,
		                       registration, net_total, tax_total, grand_total, legacy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = tx.Exec(ctx, query,
		doc.ID, doc.Type, doc.DocNumber, doc.IssueDate, doc.CustomerID, doc.CustomerName,
		doc.Registration, doc.NetTotal, doc.TaxTotal, doc.GrandTotal, doc.Legacy, doc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrNumberingConflict
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	for i := range doc.LineItems {
		li := &doc.LineItems[i]
		if li.ID == uuid.Nil {
			li.ID = uuid.New()
		}
		li.DocumentID = doc.ID

		_, err = tx.Exec(ctx, `
			INSERT INTO document_line_items (id, document_id, description, quantity, unit_price, tax_rate, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			li.ID, li.DocumentID, li.Description, li.Quantity, li.UnitPrice, li.TaxRate, li.LineTotal)
		if err != nil {
			return fmt.Errorf("failed to create line item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrNumberingConflict
		}
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

const documentColumns = `id, doc_type, doc_number, issue_date, customer_id, customer_name, registration, net_total, tax_total, grand_total, legacy, created_at`

func (r *documentRepository) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	var d models.Document
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Type, &d.DocNumber, &d.IssueDate, &d.CustomerID, &d.CustomerName,
		&d.Registration, &d.NetTotal, &d.TaxTotal, &d.GrandTotal, &d.Legacy, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, description, quantity, unit_price, tax_rate, line_total
		FROM document_line_items
		WHERE document_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var li models.DocumentLineItem
		if err := rows.Scan(&li.ID, &li.DocumentID, &li.Description, &li.Quantity, &li.UnitPrice, &li.TaxRate, &li.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		d.LineItems = append(d.LineItems, li)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Delete removes a document; line items cascade.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *documentRepository) ListNumbersInNamespace(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT doc_number FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to list document numbers: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan document number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *documentRepository) ListRefsByRegistration(ctx context.Context, reg string) ([]models.DocumentRef, error) {
	query := `
		SELECT customer_id, customer_name, issue_date
		FROM documents
		WHERE replace(upper(registration), ' ', '') = $1`

	rows, err := r.db.Query(ctx, query, registration.Normalize(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents by registration: %w", err)
	}
	defer rows.Close()

	var refs []models.DocumentRef
	for rows.Next() {
		var ref models.DocumentRef
		if err := rows.Scan(&ref.CustomerID, &ref.CustomerName, &ref.IssueDate); err != nil {
			return nil, fmt.Errorf("failed to scan document ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ DocumentRepository = (*documentRepository)(nil)
