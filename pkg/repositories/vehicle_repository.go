package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/database"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/registration"
)

// VehicleRepository defines the interface for vehicle data access.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByRegistration(ctx context.Context, reg string) (*models.Vehicle, error)
	List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error

	// SetOwner writes the vehicle's single owner reference in one UPDATE.
	// A nil ownerID clears the linkage.
	SetOwner(ctx context.Context, reg string, ownerID *uuid.UUID) error

	// ListMOTDueWithin returns owned vehicles whose MOT expiry falls inside
	// [now, now+window].
	ListMOTDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.Vehicle, error)

	// AuditOwners returns customers assigned more than threshold vehicles,
	// with a count of how many of those vehicles have supporting document
	// history.
	AuditOwners(ctx context.Context, threshold int) ([]*models.SuspiciousOwner, error)
}

type vehicleRepository struct {
	db *database.DB
}

// NewVehicleRepository creates a new vehicle repository.
func NewVehicleRepository(db *database.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

const vehicleColumns = `id, registration, make, model, year, colour, fuel_type, mot_status, mot_expiry, tax_status, owner_id, created_at, updated_at`

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.Registration, &v.Make, &v.Model, &v.Year, &v.Colour,
		&v.FuelType, &v.MOTStatus, &v.MOTExpiry, &v.TaxStatus, &v.OwnerID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	vehicle.Registration = registration.Normalize(vehicle.Registration)
	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		vehicle.ID, vehicle.Registration, vehicle.Make, vehicle.Model, vehicle.Year,
		vehicle.Colour, vehicle.FuelType, vehicle.MOTStatus, vehicle.MOTExpiry,
		vehicle.TaxStatus, vehicle.OwnerID, vehicle.CreatedAt, vehicle.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

// GetByRegistration matches on the normalized form so lookups work against
// rows imported before normalization was enforced.
func (r *vehicleRepository) GetByRegistration(ctx context.Context, reg string) (*models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE replace(upper(registration), ' ', '') = $1`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, registration.Normalize(reg)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

func (r *vehicleRepository) List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		ORDER BY registration
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	return collectVehicles(rows)
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now()

	query := `
		UPDATE vehicles
		SET make = $2, model = $3, year = $4, colour = $5, fuel_type = $6,
		    mot_status = $7, mot_expiry = $8, tax_status = $9, updated_at = $10
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		vehicle.ID, vehicle.Make, vehicle.Model, vehicle.Year, vehicle.Colour,
		vehicle.FuelType, vehicle.MOTStatus, vehicle.MOTExpiry, vehicle.TaxStatus, vehicle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *vehicleRepository) SetOwner(ctx context.Context, reg string, ownerID *uuid.UUID) error {
	query := `
		UPDATE vehicles
		SET owner_id = $2, updated_at = now()
		WHERE replace(upper(registration), ' ', '') = $1`

	result, err := r.db.Exec(ctx, query, registration.Normalize(reg), ownerID)
	if err != nil {
		return fmt.Errorf("failed to set vehicle owner: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *vehicleRepository) ListMOTDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE owner_id IS NOT NULL
		  AND mot_expiry IS NOT NULL
		  AND mot_expiry >= $1
		  AND mot_expiry <= $2
		ORDER BY mot_expiry`

	rows, err := r.db.Query(ctx, query, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles with MOT due: %w", err)
	}
	defer rows.Close()

	return collectVehicles(rows)
}

// AuditOwners surfaces bulk mis-import artifacts: customers holding an
// implausible number of vehicles, most of which the documents table has
// never heard of.
func (r *vehicleRepository) AuditOwners(ctx context.Context, threshold int) ([]*models.SuspiciousOwner, error) {
	query := `
		SELECT c.id,
		       trim(c.first_name || ' ' || c.last_name),
		       count(v.id) AS assigned,
		       count(v.id) FILTER (
		           WHERE EXISTS (
		               SELECT 1 FROM documents d
		               WHERE replace(upper(d.registration), ' ', '') = replace(upper(v.registration), ' ', '')
		           )
		       ) AS with_history
		FROM customers c
		JOIN vehicles v ON v.owner_id = c.id
		GROUP BY c.id, c.first_name, c.last_name
		HAVING count(v.id) > $1
		ORDER BY count(v.id) DESC`

	rows, err := r.db.Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to audit vehicle owners: %w", err)
	}
	defer rows.Close()

	var owners []*models.SuspiciousOwner
	for rows.Next() {
		var o models.SuspiciousOwner
		if err := rows.Scan(&o.CustomerID, &o.CustomerName, &o.AssignedVehicles, &o.VehiclesWithHistory); err != nil {
			return nil, fmt.Errorf("failed to scan suspicious owner: %w", err)
		}
		o.VehiclesWithoutHistory = o.AssignedVehicles - o.VehiclesWithHistory
		owners = append(owners, &o)
	}
	return owners, rows.Err()
}

func collectVehicles(rows pgx.Rows) ([]*models.Vehicle, error) {
	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

var _ VehicleRepository = (*vehicleRepository)(nil)
