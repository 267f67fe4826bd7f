package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/academy/internal/api"
	"github.com/dukerupert/academy/internal/calendar"
	"github.com/dukerupert/academy/internal/container"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError reports an upstream failure with the message a user should see.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": messageFor(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, container.ErrInvalidDraft), errors.Is(err, container.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, container.ErrClosed), errors.Is(err, calendar.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func messageFor(err error) string {
	if errors.Is(err, container.ErrInvalidDraft) || errors.Is(err, container.ErrInvalidStatus) {
		return err.Error()
	}
	return api.Message(err)
}
