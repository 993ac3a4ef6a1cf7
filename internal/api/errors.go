package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the request client. Callers branch with errors.Is;
// nothing else escapes the client boundary.
var (
	// ErrTimeout means the request was aborted after the configured
	// deadline. Distinct from ErrConnection so callers can tell a slow
	// network from a rejected request.
	ErrTimeout = errors.New("request timed out")

	// ErrConnection means the request failed at the transport level.
	ErrConnection = errors.New("connection failed")

	// ErrSessionExpired means there was no usable session: no stored
	// access token, or a refresh that could not be completed.
	ErrSessionExpired = errors.New("session expired")
)

// ServerError is a failure reported by the server: a non-2xx status or
// a success=false envelope with a human-readable message.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}
