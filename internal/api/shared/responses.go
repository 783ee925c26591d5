package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the standard error payload. The raw internal error never
// appears here; callers pass a sanitized message.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response",
			"error", err, "path", r.URL.Path)
	}
}

// RespondWithError writes a JSON error response carrying the request's
// trace ID when one is set.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	if status >= http.StatusInternalServerError {
		slog.Error("sending error response",
			"status_code", status, "message", message,
			"trace_id", traceID, "path", r.URL.Path, "method", r.Method)
	} else {
		slog.Debug("sending error response",
			"status_code", status, "message", message,
			"trace_id", traceID, "path", r.URL.Path, "method", r.Method)
	}

	RespondWithJSON(w, r, status, ErrorResponse{Error: message, TraceID: traceID})
}
