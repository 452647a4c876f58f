package tracker

import (
	"errors"
	"fmt"

	"github.com/atinyakov/fit/internal/models"
)

var (
	// ErrInvalidArgument is returned for unknown tracker types and for
	// operations on trackers that have no stored credentials.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotAuthenticated is returned by requests made before a token was obtained.
	ErrNotAuthenticated = errors.New("tracker session is not authenticated")
	// ErrNoData is returned when the upstream API has nothing scored yet.
	ErrNoData = errors.New("no data available")
	// ErrNoActiveTracker is returned by callers that need a tracker when
	// none is configured or it could not be constructed.
	ErrNoActiveTracker = errors.New("no active tracker")
)

// AuthenticationError reports a failed token exchange.
type AuthenticationError struct {
	Tracker models.TrackerType
	Err     error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authenticate %s: %v", e.Tracker, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response from a tracker API.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	// Body holds the start of the response body, for diagnostics.
	Body string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
