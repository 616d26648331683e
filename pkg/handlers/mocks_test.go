package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/services"
)

// mockCustomerRepo implements repositories.CustomerRepository.
type mockCustomerRepo struct {
	customers map[uuid.UUID]*models.Customer
	createErr error
	listErr   error
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[uuid.UUID]*models.Customer)}
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *models.Customer) error {
	if m.createErr != nil {
		return m.createErr
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.customers[c.ID] = c
	return nil
}

func (m *mockCustomerRepo) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockCustomerRepo) List(ctx context.Context, limit, offset int) ([]*models.Customer, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Customer
	for _, c := range m.customers {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *models.Customer) error {
	if _, ok := m.customers[c.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.customers[c.ID] = c
	return nil
}

// mockVehicleService implements services.VehicleService.
type mockVehicleService struct {
	vehicle    *models.Vehicle
	vehicles   []*models.Vehicle
	motTests   []models.MOTTest
	createErr  error
	getErr     error
	refreshErr error
	motErr     error
}

func (m *mockVehicleService) CreateVehicle(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return v, nil
}

func (m *mockVehicleService) GetVehicle(ctx context.Context, reg string) (*models.Vehicle, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.vehicle, nil
}

func (m *mockVehicleService) ListVehicles(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	return m.vehicles, nil
}

func (m *mockVehicleService) RefreshVehicle(ctx context.Context, reg string) (*models.Vehicle, error) {
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.vehicle, nil
}

func (m *mockVehicleService) MOTHistory(ctx context.Context, reg string) ([]models.MOTTest, error) {
	if m.motErr != nil {
		return nil, m.motErr
	}
	return m.motTests, nil
}

var _ services.VehicleService = (*mockVehicleService)(nil)

// mockDocumentService implements services.DocumentService.
type mockDocumentService struct {
	nextNumber string
	nextErr    error
	doc        *models.Document
	createErr  error
	getErr     error
	deleteErr  error
	deleted    []uuid.UUID
}

func (m *mockDocumentService) AllocateNextDocumentNumber(ctx context.Context, docType models.DocumentType) (string, error) {
	if m.nextErr != nil {
		return "", m.nextErr
	}
	return m.nextNumber, nil
}

func (m *mockDocumentService) CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	doc.ID = uuid.New()
	doc.DocNumber = m.nextNumber
	return doc, nil
}

func (m *mockDocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.doc, nil
}

func (m *mockDocumentService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

var _ services.DocumentService = (*mockDocumentService)(nil)

// mockReconciliationService implements services.ReconciliationService.
type mockReconciliationService struct {
	candidate  *models.OwnershipCandidate
	proposeErr error
	applied    bool
	applyErr   error
	appliedTo  map[string]uuid.UUID
	owners     []*models.SuspiciousOwner
	auditErr   error
	threshold  int
}

func newMockReconciliationService() *mockReconciliationService {
	return &mockReconciliationService{appliedTo: make(map[string]uuid.UUID)}
}

func (m *mockReconciliationService) ProposeOwner(ctx context.Context, reg string) (*models.OwnershipCandidate, error) {
	return m.candidate, m.proposeErr
}

func (m *mockReconciliationService) ApplyOwner(ctx context.Context, reg string, customerID uuid.UUID) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.appliedTo[reg] = customerID
	return nil
}

func (m *mockReconciliationService) Reconcile(ctx context.Context, reg string) (*models.OwnershipCandidate, bool, error) {
	return m.candidate, m.applied, m.proposeErr
}

func (m *mockReconciliationService) AuditSuspiciousOwners(ctx context.Context, threshold int) ([]*models.SuspiciousOwner, error) {
	m.threshold = threshold
	return m.owners, m.auditErr
}

var _ services.ReconciliationService = (*mockReconciliationService)(nil)

// mockReminderService implements services.ReminderService.
type mockReminderService struct {
	summary *services.ReminderRunSummary
	err     error
}

func (m *mockReminderService) RunDueMOTPass(ctx context.Context) (*services.ReminderRunSummary, error) {
	return m.summary, m.err
}

var _ services.ReminderService = (*mockReminderService)(nil)
