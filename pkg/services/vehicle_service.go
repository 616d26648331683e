package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/dvla"
	"github.com/garagehq/garage-engine/pkg/logging"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/registration"
	"github.com/garagehq/garage-engine/pkg/repositories"
	"github.com/garagehq/garage-engine/pkg/retry"
)

// VehicleLookup is the slice of the DVLA client the vehicle service needs.
type VehicleLookup interface {
	Lookup(ctx context.Context, reg string) (*dvla.VehicleInfo, error)
}

// MOTHistoryLookup is the slice of the MOT history client the service needs.
type MOTHistoryLookup interface {
	History(ctx context.Context, reg string) ([]models.MOTTest, error)
}

// VehicleService manages vehicle records, enriching them from the vehicle
// enquiry service on a best-effort basis.
type VehicleService interface {
	// CreateVehicle persists a vehicle, enriching make/model/MOT/tax fields
	// from the enquiry service first. Enrichment failure is degraded, not
	// fatal: the vehicle is stored with whatever the caller supplied.
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)

	GetVehicle(ctx context.Context, reg string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, limit, offset int) ([]*models.Vehicle, error)

	// RefreshVehicle re-runs enrichment for an existing vehicle and saves
	// the result. Unlike creation, a refresh that cannot reach the enquiry
	// service fails, since refreshing is the entire point of the call.
	RefreshVehicle(ctx context.Context, reg string) (*models.Vehicle, error)

	// MOTHistory proxies the MOT history service for a registration.
	MOTHistory(ctx context.Context, reg string) ([]models.MOTTest, error)
}

type vehicleService struct {
	vehicles repositories.VehicleRepository
	lookup   VehicleLookup
	mot      MOTHistoryLookup
	logger   *zap.Logger
}

// NewVehicleService creates a new VehicleService. lookup and mot may be nil
// when the respective upstream is not configured.
func NewVehicleService(
	vehicles repositories.VehicleRepository,
	lookup VehicleLookup,
	mot MOTHistoryLookup,
	logger *zap.Logger,
) VehicleService {
	return &vehicleService{
		vehicles: vehicles,
		lookup:   lookup,
		mot:      mot,
		logger:   logger.Named("vehicle-service"),
	}
}

var _ VehicleService = (*vehicleService)(nil)

func (s *vehicleService) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	vehicle.Registration = registration.Normalize(vehicle.Registration)
	if !registration.Valid(vehicle.Registration) {
		return nil, apperrors.ErrInvalidRegistration
	}

	if err := s.enrich(ctx, vehicle); err != nil {
		// Continue on enrichment failure; the record can be refreshed later.
		s.logger.Warn("Vehicle enrichment failed, storing unenriched",
			zap.String("registration", vehicle.Registration),
			zap.String("error", logging.SanitizeError(err)))
	}

	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, reg string) (*models.Vehicle, error) {
	return s.vehicles.GetByRegistration(ctx, reg)
}

func (s *vehicleService) ListVehicles(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	return s.vehicles.List(ctx, limit, offset)
}

func (s *vehicleService) RefreshVehicle(ctx context.Context, reg string) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.GetByRegistration(ctx, reg)
	if err != nil {
		return nil, err
	}

	if err := s.enrich(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to refresh vehicle data: %w", err)
	}

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *vehicleService) MOTHistory(ctx context.Context, reg string) ([]models.MOTTest, error) {
	if s.mot == nil {
		return nil, errors.New("MOT history service is not configured")
	}
	normalized := registration.Normalize(reg)
	if !registration.Valid(normalized) {
		return nil, apperrors.ErrInvalidRegistration
	}

	return retry.DoWithResult(ctx, nil, func() ([]models.MOTTest, error) {
		return s.mot.History(ctx, normalized)
	})
}

func (s *vehicleService) enrich(ctx context.Context, vehicle *models.Vehicle) error {
	if s.lookup == nil {
		return nil
	}

	info, err := retry.DoWithResult(ctx, nil, func() (*dvla.VehicleInfo, error) {
		return s.lookup.Lookup(ctx, vehicle.Registration)
	})
	if err != nil {
		return err
	}

	vehicle.Make = info.Make
	if info.Model != "" {
		vehicle.Model = info.Model
	}
	vehicle.Year = info.YearOfManufacture
	vehicle.Colour = info.Colour
	vehicle.FuelType = info.FuelType
	vehicle.MOTStatus = info.MOTStatus
	vehicle.MOTExpiry = info.MOTExpiry
	vehicle.TaxStatus = info.TaxStatus
	return nil
}
