package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/signet"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
// Client errors echo the error text; everything else gets a generic message.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, signet.ErrMissingParameter):
		slog.Debug("request rejected", "error", err)
		WriteError(w, http.StatusBadRequest, "missing_parameter", err.Error())
	case errors.Is(err, signet.ErrInvalidInput), errors.Is(err, ErrInvalidBody):
		slog.Debug("request rejected", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, signet.ErrUnsupportedMediaType):
		slog.Debug("request rejected", "error", err)
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
	case errors.Is(err, signet.ErrNotFound):
		slog.Debug("object not found", "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
	case errors.Is(err, signet.ErrUnauthorized):
		slog.Warn("request unauthorized", "error", err)
		WriteError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, ErrOriginNotAllowed):
		WriteError(w, http.StatusForbidden, "origin_not_allowed", "Origin not allowed")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
