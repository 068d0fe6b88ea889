package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a record lacks a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidField is returned when a field value has the wrong type or
	// cannot be parsed.
	ErrInvalidField = errors.New("invalid field value")

	// ErrInvalidConfig is returned when a scoring configuration is unusable.
	ErrInvalidConfig = errors.New("invalid scoring configuration")
)

// FieldError reports a problem with a single input field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// InvalidField wraps cause as an ErrInvalidField for the named field.
func InvalidField(field string, cause error) *FieldError {
	return &FieldError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidField, cause)}
}
