// Package apperr defines the error kinds services return and handlers map to
// HTTP statuses. Services wrap a kind with context using fmt.Errorf("%w: ...").
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUpstream     = errors.New("upstream dependency failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// FieldError carries per-field validation messages alongside ErrValidation.
type FieldError struct {
	Message string
	Fields  map[string]string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

func Fields(message string, fields map[string]string) error {
	return &FieldError{Message: message, Fields: fields}
}

// Details returns the per-field messages of a validation error, if any.
func Details(err error) map[string]string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
