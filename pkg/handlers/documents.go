package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/services"
)

// DocumentsHandler handles job sheet, estimate and invoice HTTP requests.
type DocumentsHandler struct {
	documents services.DocumentService
	logger    *zap.Logger
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(documents services.DocumentService, logger *zap.Logger) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, logger: logger}
}

// RegisterRoutes registers the documents handler's routes on the given mux.
func (h *DocumentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents", h.Create)
	mux.HandleFunc("GET /api/documents/next-number", h.NextNumber)
	mux.HandleFunc("GET /api/documents/{did}", h.Get)
	mux.HandleFunc("DELETE /api/documents/{did}", h.Delete)
}

// Create handles POST /api/documents.
// The document number is assigned server-side; any number in the request body
// is ignored.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var doc models.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	doc.DocNumber = ""

	created, err := h.documents.CreateDocument(r.Context(), &doc)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRegistration) {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_registration", "Invalid vehicle registration")
			return
		}
		if errors.Is(err, apperrors.ErrNumberingConflict) {
			h.logger.Error("Document numbering conflict persisted through retry", zap.Error(err))
			respondError(w, h.logger, http.StatusConflict, "numbering_conflict", "Could not allocate a document number, try again")
			return
		}
		if !models.ValidDocumentType(doc.Type) {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_document_type", "Document type must be job_sheet, estimate or invoice")
			return
		}
		h.logger.Error("Failed to create document", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to create document")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, created)
}

// NextNumber handles GET /api/documents/next-number?type=job_sheet.
// Returns an advisory preview; the number is only claimed on creation.
func (h *DocumentsHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	docType := models.DocumentType(r.URL.Query().Get("type"))
	if !models.ValidDocumentType(docType) {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_document_type", "Document type must be job_sheet, estimate or invoice")
		return
	}

	number, err := h.documents.AllocateNextDocumentNumber(r.Context(), docType)
	if err != nil {
		h.logger.Error("Failed to preview document number", zap.String("doc_type", string(docType)), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to compute next document number")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"type":        string(docType),
		"next_number": number,
	})
}

// Get handles GET /api/documents/{did}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	doc, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Document not found")
			return
		}
		h.logger.Error("Failed to get document", zap.String("document_id", id.String()), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get document")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, doc)
}

// Delete handles DELETE /api/documents/{did}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.documents.DeleteDocument(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Document not found")
			return
		}
		h.logger.Error("Failed to delete document", zap.String("document_id", id.String()), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to delete document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
