package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// schedule does not exist in the store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing name, malformed email, empty selection).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrExpired is returned when a schedule exists but its expiration instant has
// passed. The record may still be stored pending cleanup, so this is a distinct
// signal from ErrNotFound. Handlers should map this to HTTP 410 Gone.
var ErrExpired = errors.New("expired")

// ErrUnauthorized is returned when an admin operation is attempted with a wrong
// credential. Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict is returned by repos when a generated share id collides with an
// existing record. Callers should retry with a fresh id.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrInvalidRange is returned when a custom slot's start is not strictly before
// its end. It wraps ErrValidation so callers can match either.
var ErrInvalidRange = fmt.Errorf("%w: end time must be after start time", ErrValidation)

// validationf builds an error wrapping ErrValidation with a field-level message.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
