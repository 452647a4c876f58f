package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/fit/internal/tracker"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var authErr *tracker.AuthenticationError
	var httpErr *tracker.HTTPError

	switch {
	case errors.Is(err, tracker.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrNoActiveTracker), errors.Is(err, tracker.ErrNoData):
		return http.StatusNotFound
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a plain-text response. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
