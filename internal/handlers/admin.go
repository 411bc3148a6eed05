package handlers

import (
	"net/http"
	"strings"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/services"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/gorilla/mux"
)

type AdminHandler struct {
	service services.DocumentService
	logger  *utils.Logger
}

func NewAdminHandler(service services.DocumentService, logger *utils.Logger) *AdminHandler {
	return &AdminHandler{service: service, logger: logger}
}

func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req models.ReconcileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, err)
		return
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		respondError(h.logger, w, utils.NewBadRequestError("documentId is required"))
		return
	}

	res, err := h.service.Reconcile(r.Context(), req.DocumentID)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, models.ReconcileResponse{RemovedRecords: res.RemovedRecords})
}

func (h *AdminHandler) SimulateFailure(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.SimulateFailure(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, models.ReconcileResponse{RemovedRecords: res.RemovedRecords})
}
