package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/recognition"
	"github.com/kozaktomas/face-kiosk/internal/registration"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps a flow error to the HTTP status the page receives.
// The error itself has already been rendered into its region.
func statusForError(err error) int {
	switch {
	case errors.Is(err, registration.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, recognition.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, api.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrNetworkFailure), errors.Is(err, api.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondFlowError sends the user-visible message for a flow error.
func respondFlowError(w http.ResponseWriter, err error, msgs config.Messages) {
	message := ui.ErrorText(err, msgs)
	switch {
	case errors.Is(err, registration.ErrValidation):
		message = msgs.RegistrationMissingFields
	case errors.Is(err, recognition.ErrBusy):
		message = recognition.ErrBusy.Error()
	}
	respondError(w, statusForError(err), message)
}
