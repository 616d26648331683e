package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/dvla"
	"github.com/garagehq/garage-engine/pkg/models"
)

// mockDocumentRepo implements repositories.DocumentRepository for unit tests.
type mockDocumentRepo struct {
	numbers    []string
	numbersErr error
	refs       []models.DocumentRef
	refsErr    error

	created    []*models.Document
	createErrs []error // consumed in order; nil slice means always succeed

	deleted []uuid.UUID
}

func (m *mockDocumentRepo) CreateWithLineItems(ctx context.Context, doc *models.Document) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	copied := *doc
	m.created = append(m.created, &copied)
	m.numbers = append(m.numbers, doc.DocNumber)
	return nil
}

func (m *mockDocumentRepo) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	for _, d := range m.created {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentRepo) ListNumbersInNamespace(ctx context.Context) ([]string, error) {
	if m.numbersErr != nil {
		return nil, m.numbersErr
	}
	return append([]string(nil), m.numbers...), nil
}

func (m *mockDocumentRepo) ListRefsByRegistration(ctx context.Context, reg string) ([]models.DocumentRef, error) {
	if m.refsErr != nil {
		return nil, m.refsErr
	}
	return m.refs, nil
}

// mockVehicleRepo implements repositories.VehicleRepository for unit tests.
type mockVehicleRepo struct {
	vehicles map[string]*models.Vehicle // by normalized registration

	ownerSet map[string]*uuid.UUID
	setErr   error

	due    []*models.Vehicle
	dueErr error

	audit          []*models.SuspiciousOwner
	auditErr       error
	auditThreshold int

	updated []*models.Vehicle
}

func newMockVehicleRepo() *mockVehicleRepo {
	return &mockVehicleRepo{
		vehicles: make(map[string]*models.Vehicle),
		ownerSet: make(map[string]*uuid.UUID),
	}
}

func (m *mockVehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.vehicles[v.Registration] = v
	return nil
}

func (m *mockVehicleRepo) GetByRegistration(ctx context.Context, reg string) (*models.Vehicle, error) {
	if v, ok := m.vehicles[reg]; ok {
		return v, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockVehicleRepo) List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	var out []*models.Vehicle
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	return out, nil
}

func (m *mockVehicleRepo) Update(ctx context.Context, v *models.Vehicle) error {
	m.updated = append(m.updated, v)
	return nil
}

func (m *mockVehicleRepo) SetOwner(ctx context.Context, reg string, ownerID *uuid.UUID) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.ownerSet[reg] = ownerID
	return nil
}

func (m *mockVehicleRepo) ListMOTDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.Vehicle, error) {
	if m.dueErr != nil {
		return nil, m.dueErr
	}
	return m.due, nil
}

func (m *mockVehicleRepo) AuditOwners(ctx context.Context, threshold int) ([]*models.SuspiciousOwner, error) {
	m.auditThreshold = threshold
	if m.auditErr != nil {
		return nil, m.auditErr
	}
	return m.audit, nil
}

// mockCustomerRepo implements repositories.CustomerRepository for unit tests.
type mockCustomerRepo struct {
	customers map[uuid.UUID]*models.Customer
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[uuid.UUID]*models.Customer)}
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *models.Customer) error {
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
	var out []*models.Customer
	for _, c := range m.customers {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *models.Customer) error {
	m.customers[c.ID] = c
	return nil
}

// mockReminderRepo implements repositories.ReminderRepository for unit tests.
type mockReminderRepo struct {
	logged []*models.Reminder
	recent map[uuid.UUID]struct{}
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{recent: make(map[uuid.UUID]struct{})}
}

func (m *mockReminderRepo) Log(ctx context.Context, r *models.Reminder) error {
	m.logged = append(m.logged, r)
	return nil
}

func (m *mockReminderRepo) RecentlyReminded(ctx context.Context, since time.Time) (map[uuid.UUID]struct{}, error) {
	return m.recent, nil
}

// mockLookup implements VehicleLookup.
type mockLookup struct {
	info  *dvla.VehicleInfo
	err   error
	calls int
}

func (m *mockLookup) Lookup(ctx context.Context, reg string) (*dvla.VehicleInfo, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

// mockSender implements MessageSender.
type mockSender struct {
	sids  []string
	err   error
	sent  []string // destinations
	calls int
}

func (m *mockSender) Send(ctx context.Context, to, body string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, to)
	sid := "SM000"
	if len(m.sids) > 0 {
		sid = m.sids[0]
		m.sids = m.sids[1:]
	}
	return sid, nil
}
