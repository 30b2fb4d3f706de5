package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"jobsearch-engine/internal/service"
	"jobsearch-engine/internal/store"
)

type APIError struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, APIError{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
	}})
}

// WriteErr answers with the status matching a known sentinel in err's chain,
// 500 otherwise.
func WriteErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrRunning):
		WriteError(w, r, http.StatusConflict, "run_in_progress", err.Error())
	default:
		slog.ErrorContext(r.Context(), "[http] request failed", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
