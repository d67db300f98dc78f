package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected at the boundary.
	ErrValidation = errors.New("validation error")
	// ErrConstraintViolation marks a uniqueness, foreign key or check failure at the medium.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNotFound marks a missing object. Read paths treat it as an empty result.
	ErrNotFound = errors.New("not found")
	// ErrStorageUnavailable marks a connection or network failure to the medium.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
