package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

func respondJSON(logger *utils.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

func respondError(logger *utils.Logger, w http.ResponseWriter, err error) {
	appErr := utils.FromError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request error", "status", appErr.StatusCode, "error", err)
	} else {
		logger.Warn("Request error", "status", appErr.StatusCode, "error", appErr.Message)
	}

	respondJSON(logger, w, appErr.StatusCode, map[string]string{"error": appErr.Message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewBadRequestError("Invalid JSON body")
	}
	return nil
}
