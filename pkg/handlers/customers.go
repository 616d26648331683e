package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/repositories"
)

// CustomersHandler handles customer record HTTP requests.
type CustomersHandler struct {
	customers repositories.CustomerRepository
	logger    *zap.Logger
}

// NewCustomersHandler creates a new customers handler.
func NewCustomersHandler(customers repositories.CustomerRepository, logger *zap.Logger) *CustomersHandler {
	return &CustomersHandler{customers: customers, logger: logger}
}

// RegisterRoutes registers the customers handler's routes on the given mux.
func (h *CustomersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/customers", h.Create)
	mux.HandleFunc("GET /api/customers", h.List)
	mux.HandleFunc("GET /api/customers/{cid}", h.Get)
	mux.HandleFunc("PUT /api/customers/{cid}", h.Update)
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var customer models.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if customer.DisplayName() == "" {
		respondError(w, h.logger, http.StatusBadRequest, "missing_name", "Customer name is required")
		return
	}

	if err := h.customers.Create(r.Context(), &customer); err != nil {
		h.logger.Error("Failed to create customer", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to create customer")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, customer)
}

// Get handles GET /api/customers/{cid}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseCustomerID(w, r, h.logger)
	if !ok {
		return
	}

	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Customer not found")
			return
		}
		h.logger.Error("Failed to get customer", zap.String("customer_id", id.String()), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get customer")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, customer)
}

// List handles GET /api/customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	customers, err := h.customers.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list customers", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to list customers")
		return
	}
	if customers == nil {
		customers = []*models.Customer{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"customers": customers})
}

// Update handles PUT /api/customers/{cid}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseCustomerID(w, r, h.logger)
	if !ok {
		return
	}

	var customer models.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	customer.ID = id

	if err := h.customers.Update(r.Context(), &customer); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Customer not found")
			return
		}
		h.logger.Error("Failed to update customer", zap.String("customer_id", id.String()), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to update customer")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, customer)
}
