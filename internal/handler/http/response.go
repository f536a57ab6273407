package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"shelf-vision/internal/logger"
	"shelf-vision/internal/repository"
	"shelf-vision/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeServiceError maps store and service sentinels to a status and error code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrDuplicateID):
		writeError(w, http.StatusBadRequest, "duplicate_id", err.Error())
	case errors.Is(err, service.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, "invalid_product", err.Error())
	case errors.Is(err, service.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, "invalid_image", err.Error())
	case errors.Is(err, service.ErrDetectionFailed):
		logger.Error(r.Context(), "Detection failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "detection_failed", err.Error())
	default:
		logger.Error(r.Context(), "Unhandled error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
