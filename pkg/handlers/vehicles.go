package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/registration"
	"github.com/garagehq/garage-engine/pkg/services"
)

// VehiclesHandler handles vehicle record HTTP requests.
type VehiclesHandler struct {
	vehicles services.VehicleService
	logger   *zap.Logger
}

// NewVehiclesHandler creates a new vehicles handler.
func NewVehiclesHandler(vehicles services.VehicleService, logger *zap.Logger) *VehiclesHandler {
	return &VehiclesHandler{vehicles: vehicles, logger: logger}
}

// RegisterRoutes registers the vehicles handler's routes on the given mux.
func (h *VehiclesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/vehicles", h.Create)
	mux.HandleFunc("GET /api/vehicles", h.List)
	mux.HandleFunc("GET /api/vehicles/{reg}", h.Get)
	mux.HandleFunc("POST /api/vehicles/{reg}/refresh", h.Refresh)
	mux.HandleFunc("GET /api/vehicles/{reg}/mot-history", h.MOTHistory)
}

// pathRegistration normalizes the {reg} path parameter, writing a 400 when it
// cannot be a registration at all.
func (h *VehiclesHandler) pathRegistration(w http.ResponseWriter, r *http.Request) (string, bool) {
	reg := registration.Normalize(r.PathValue("reg"))
	if !registration.Valid(reg) {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_registration", "Invalid vehicle registration")
		return "", false
	}
	return reg, true
}

// Create handles POST /api/vehicles.
func (h *VehiclesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	created, err := h.vehicles.CreateVehicle(r.Context(), &vehicle)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRegistration) {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_registration", "Invalid vehicle registration")
			return
		}
		if errors.Is(err, apperrors.ErrConflict) {
			respondError(w, h.logger, http.StatusConflict, "already_exists", "Vehicle already registered")
			return
		}
		h.logger.Error("Failed to create vehicle", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to create vehicle")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, created)
}

// Get handles GET /api/vehicles/{reg}.
func (h *VehiclesHandler) Get(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.pathRegistration(w, r)
	if !ok {
		return
	}

	vehicle, err := h.vehicles.GetVehicle(r.Context(), reg)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Vehicle not found")
			return
		}
		h.logger.Error("Failed to get vehicle", zap.String("registration", reg), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get vehicle")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, vehicle)
}

// List handles GET /api/vehicles.
func (h *VehiclesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	vehicles, err := h.vehicles.ListVehicles(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list vehicles", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to list vehicles")
		return
	}
	if vehicles == nil {
		vehicles = []*models.Vehicle{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"vehicles": vehicles})
}

// Refresh handles POST /api/vehicles/{reg}/refresh.
// Re-runs enrichment against the vehicle enquiry service.
func (h *VehiclesHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.pathRegistration(w, r)
	if !ok {
		return
	}

	vehicle, err := h.vehicles.RefreshVehicle(r.Context(), reg)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Vehicle not found")
			return
		}
		h.logger.Error("Failed to refresh vehicle", zap.String("registration", reg), zap.Error(err))
		respondError(w, h.logger, http.StatusBadGateway, "upstream_error", "Vehicle enquiry service unavailable")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, vehicle)
}

// MOTHistory handles GET /api/vehicles/{reg}/mot-history.
func (h *VehiclesHandler) MOTHistory(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.pathRegistration(w, r)
	if !ok {
		return
	}

	tests, err := h.vehicles.MOTHistory(r.Context(), reg)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "No MOT history for this registration")
			return
		}
		h.logger.Error("Failed to fetch MOT history", zap.String("registration", reg), zap.Error(err))
		respondError(w, h.logger, http.StatusBadGateway, "upstream_error", "MOT history service unavailable")
		return
	}
	if tests == nil {
		tests = []models.MOTTest{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"registration": reg, "mot_tests": tests})
}
