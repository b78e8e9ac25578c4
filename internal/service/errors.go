package service

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP status codes by the handlers.
var (
	// ErrInvalidInput marks a request rejected before any side effect.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing resource. Resources owned by another user
	// are reported identically to missing ones.
	ErrNotFound = errors.New("not found")
	// ErrExternalService marks an upstream failure with no safe default.
	ErrExternalService = errors.New("external service error")
)

// ValidationError reports a rejected request field with a human-readable
// message. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
