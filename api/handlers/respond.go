package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wordbloom/contrib-engine/app/shared"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the shared error taxonomy onto HTTP statuses: validation
// 400, not-found 404, transient persistence 503, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case shared.IsValidation(err):
		status = http.StatusBadRequest
	case shared.IsNotFound(err):
		status = http.StatusNotFound
	case shared.IsTransient(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		// Internal detail stays in the log.
		writeJSON(w, status, errorBody{Error: "internal server error"})
		return
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}
