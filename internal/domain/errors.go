package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource (unknown employee id).
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed or empty request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderError signals an embedding or generation provider failure
	// that survived all retry attempts.
	ErrProviderError = errors.New("provider error")
	// ErrUnreadableDocument signals that text could not be extracted from an upload.
	ErrUnreadableDocument = errors.New("could not read file")
)

// InputError wraps ErrInvalidInput with the offending field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// NewInputError creates an input error for a field.
func NewInputError(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
