package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/storage"
)

var (
	// ErrPermissionDenied is returned when the caller's role lacks a capability.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthenticated is returned when an operation runs without a principal.
	ErrUnauthenticated = auth.ErrMissingToken

	ErrNotFound        = storage.ErrNotFound
	ErrAlreadyVerified = storage.ErrAlreadyVerified
	ErrConflict        = storage.ErrConflict
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when caller input is rejected.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// authorize fails unless actor is authenticated and holds capability c.
func authorize(actor auth.Principal, c auth.Capability) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !actor.Can(c) {
		return fmt.Errorf("%w: %s requires %s", ErrPermissionDenied, actor.Role, c)
	}
	return nil
}

// authenticated fails unless actor came from a valid token.
func authenticated(actor auth.Principal) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}
