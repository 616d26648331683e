package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/registration"
	"github.com/garagehq/garage-engine/pkg/services"
)

// OwnershipProposalResponse is the response for ownership proposal endpoints.
type OwnershipProposalResponse struct {
	Registration string                     `json:"registration"`
	Candidate    *models.OwnershipCandidate `json:"candidate"`
	Applied      bool                       `json:"applied"`
	Ambiguous    bool                       `json:"ambiguous,omitempty"`
	TiedWith     []string                   `json:"tied_with,omitempty"`
}

// ReconciliationHandler handles ownership repair HTTP requests.
type ReconciliationHandler struct {
	reconciliation services.ReconciliationService
	logger         *zap.Logger
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(reconciliation services.ReconciliationService, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliation: reconciliation, logger: logger}
}

// RegisterRoutes registers the reconciliation handler's routes on the given mux.
func (h *ReconciliationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/vehicles/{reg}/ownership/proposal", h.Propose)
	mux.HandleFunc("POST /api/vehicles/{reg}/ownership", h.Apply)
	mux.HandleFunc("POST /api/vehicles/{reg}/ownership/reconcile", h.Reconcile)
	mux.HandleFunc("GET /api/ownership/audit", h.Audit)
}

func (h *ReconciliationHandler) pathRegistration(w http.ResponseWriter, r *http.Request) (string, bool) {
	reg := registration.Normalize(r.PathValue("reg"))
	if !registration.Valid(reg) {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_registration", "Invalid vehicle registration")
		return "", false
	}
	return reg, true
}

// Propose handles GET /api/vehicles/{reg}/ownership/proposal.
// A tie between top candidates is reported, not hidden: the response carries
// the deterministic winner plus the tied identities for the operator to pick
// from.
func (h *ReconciliationHandler) Propose(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.pathRegistration(w, r)
	if !ok {
		return
	}

	candidate, err := h.reconciliation.ProposeOwner(r.Context(), reg)
	response := OwnershipProposalResponse{Registration: reg, Candidate: candidate}

	var ambiguous *apperrors.AmbiguousOwnershipError
	if errors.As(err, &ambiguous) {
		response.Ambiguous = true
		response.TiedWith = ambiguous.CandidateIDs
		respondJSON(w, h.logger, http.StatusConflict, response)
		return
	}
	if err != nil {
		h.logger.Error("Failed to propose owner", zap.String("registration", reg), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to propose owner")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, response)
}

// Apply handles POST /api/vehicles/{reg}/ownership.
// Body: {"customer_id": "..."}
func (h *ReconciliationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.pathRegistration(w, r)
	if !ok {
		return
	}

	var body struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	customerID, err := uuid.Parse(body.CustomerID)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_customer_id", "Invalid customer ID format")
		return
	}

	if err := h.reconciliation.ApplyOwner(r.Context(), reg, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Vehicle not found")
			return
		}
		h.logger.Error("Failed to apply owner",
			zap.String("registration", reg),
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to apply owner")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"registration": reg,
		"customer_id":  customerID.String(),
		"status":       "applied",
	})
}

// Reconcile handles POST /api/vehicles/{reg}/ownership/reconcile.
// Proposes and applies in one step when auto-apply policy allows.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.pathRegistration(w, r)
	if !ok {
		return
	}

	candidate, applied, err := h.reconciliation.Reconcile(r.Context(), reg)
	response := OwnershipProposalResponse{Registration: reg, Candidate: candidate, Applied: applied}

	var ambiguous *apperrors.AmbiguousOwnershipError
	if errors.As(err, &ambiguous) {
		response.Ambiguous = true
		response.TiedWith = ambiguous.CandidateIDs
		respondJSON(w, h.logger, http.StatusConflict, response)
		return
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Vehicle not found")
			return
		}
		h.logger.Error("Failed to reconcile ownership", zap.String("registration", reg), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to reconcile ownership")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, response)
}

// Audit handles GET /api/ownership/audit?threshold=10.
// Threshold falls back to policy when absent or malformed.
func (h *ReconciliationHandler) Audit(w http.ResponseWriter, r *http.Request) {
	threshold := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("threshold")); err == nil {
		threshold = v
	}

	owners, err := h.reconciliation.AuditSuspiciousOwners(r.Context(), threshold)
	if err != nil {
		h.logger.Error("Failed to audit owners", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to audit owners")
		return
	}
	if owners == nil {
		owners = []*models.SuspiciousOwner{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"suspicious_owners": owners})
}
