package backend

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a request fails local validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// APIError is a non-2xx response from the session service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend error (%d)", e.StatusCode)
}

// Is lets errors.Is(err, ErrSessionNotFound) match a 404.
func (e *APIError) Is(target error) bool {
	return target == ErrSessionNotFound && e.StatusCode == 404
}
