package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/services"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/gorilla/mux"
)

// PipelineHandler receives callbacks from the translation pipeline.
type PipelineHandler struct {
	service services.DocumentService
	logger  *utils.Logger
}

func NewPipelineHandler(service services.DocumentService, logger *utils.Logger) *PipelineHandler {
	return &PipelineHandler{service: service, logger: logger}
}

func (h *PipelineHandler) RecordVerification(w http.ResponseWriter, r *http.Request) {
	var req models.VerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, err)
		return
	}

	rec, err := h.service.RecordVerification(r.Context(), req)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, rec)
}

func (h *PipelineHandler) RecordTranslation(w http.ResponseWriter, r *http.Request) {
	var req models.TranslationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, err)
		return
	}

	doc, err := h.service.RecordTranslation(r.Context(), req)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, doc)
}

func (h *PipelineHandler) Complete(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.CompleteDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, doc)
}

func (h *PipelineHandler) Reject(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.RejectDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, doc)
}
