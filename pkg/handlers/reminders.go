package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/services"
)

// RemindersHandler triggers reminder passes over the vehicle fleet.
type RemindersHandler struct {
	reminders services.ReminderService
	logger    *zap.Logger
}

// NewRemindersHandler creates a new reminders handler.
func NewRemindersHandler(reminders services.ReminderService, logger *zap.Logger) *RemindersHandler {
	return &RemindersHandler{reminders: reminders, logger: logger}
}

// RegisterRoutes registers the reminders handler's routes on the given mux.
func (h *RemindersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/reminders/mot/run", h.RunMOTPass)
}

// RunMOTPass handles POST /api/reminders/mot/run.
// Kicks one reminder pass and reports how it went. Safe to call repeatedly;
// vehicles reminded inside the current window are skipped.
func (h *RemindersHandler) RunMOTPass(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reminders.RunDueMOTPass(r.Context())
	if err != nil {
		h.logger.Error("Reminder pass failed", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Reminder pass failed")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, summary)
}
