package utils

import (
	"encoding/json"
	"net/http"

	"peelojuice/internal/apperrors"
)

// WriteJSON writes data as the standard success envelope.
func WriteJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse(message, data))
}

// WriteError maps a service error to its HTTP status and writes the error
// envelope with the specific public reason.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.StatusOf(err))
	_ = json.NewEncoder(w).Encode(ErrorResponse("Request failed", apperrors.PublicMessage(err)))
}
