package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/backend"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, logger)
}

// WriteBackendError surfaces a failed backend call. The backend's status
// and message are passed through for 4xx answers; anything else becomes a
// 502 with the server message when there is one, else fallback.
func WriteBackendError(w http.ResponseWriter, err error, fallback string, logger *slog.Logger) {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		logger.Error(fallback, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
		return
	}

	status := http.StatusBadGateway
	if apiErr.Status >= 400 && apiErr.Status < 500 {
		status = apiErr.Status
	}
	logger.Warn(fallback, "backend_status", apiErr.Status, "error", err)
	WriteError(w, status, backend.Message(err, fallback), logger)
}

// decodeJSON reads a single JSON object from the request body into v
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
