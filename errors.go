package interact

import (
	"errors"
	"fmt"
)

var (
	ErrMissingServerURL  = errors.New("interact: server URL is not configured")
	ErrMissingAudience   = errors.New("interact: audience id is not configured")
	ErrMalformedResponse = errors.New("interact: malformed response body")
	ErrNoSession         = errors.New("interact: no active session")
	ErrTimeout           = errors.New("interact: operation timed out")
)

// TransportError is returned when the server answers with a status other
// than 200 or the exchange itself fails. Body holds whatever was received.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("interact: request failed: %s", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("interact: %d %s: %s", e.StatusCode, e.Status, e.Err)
	}
	return fmt.Sprintf("interact: unexpected status %d %s", e.StatusCode, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
