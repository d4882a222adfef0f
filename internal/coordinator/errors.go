package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/adamavenir/gram/internal/api"
)

// ErrBusy reports that the same mutation on the same entity is already in
// flight. Callers treat it as a no-op, not a failure.
var ErrBusy = errors.New("operation already in progress")

// ValidationError is a client-side rejection; nothing was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RemoteError is a failed or timed-out API call. Status is 0 when no HTTP
// response was received.
type RemoteError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsNotFound reports a 404 from the API.
func (e *RemoteError) IsNotFound() bool { return e.Status == 404 }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Normalize maps transport and API failures onto the error taxonomy.
// ValidationError, RemoteError, ErrBusy and api.ErrUnauthenticated pass through.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var validation *ValidationError
	var remote *RemoteError
	if errors.As(err, &validation) || errors.As(err, &remote) ||
		errors.Is(err, ErrBusy) || errors.Is(err, api.ErrUnauthenticated) {
		return err
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return &RemoteError{Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	if isTimeout(err) {
		return &RemoteError{Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &RemoteError{Message: "request canceled", Err: err}
	}
	return &RemoteError{Message: err.Error(), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Message renders err for display in a status line or tool result.
func Message(err error) string {
	var validation *ValidationError
	var remote *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &remote):
		if remote.Message == "" {
			return "request failed"
		}
		return remote.Message
	case errors.Is(err, api.ErrUnauthenticated):
		return "not logged in (run: gram login)"
	default:
		return err.Error()
	}
}
