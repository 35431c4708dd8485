package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key violation")
	ErrInvalidID      = errors.New("invalid ID")
	ErrEmptyEventName = errors.New("event name is required")
	ErrNameImmutable  = errors.New("event name cannot change once stored")
)

// ValidationError is returned by boundary checks before a request reaches
// the import core.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

// NewValidationError creates a validation error with a stable code
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Is lets errors.Is match validation errors by code.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Validation error codes
var (
	ErrInvalidEventID = NewValidationError("invalid_event_id", "event id must be a positive integer")
)
