package handler

import (
	"encoding/json"
	"net/http"

	"shopgate/internal/middleware"
	"shopgate/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code. The status
// line is already committed when encoding runs, so an encode failure cannot
// be reported to the client.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a standardised error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	correlationID := middleware.CorrelationIDFromContext(r.Context())

	logger.Error().
		Str("code", code).
		Str("error", message).
		Int("status", status).
		Str("correlation_id", correlationID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID,
	})
}
