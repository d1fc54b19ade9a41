package shared

import (
	"errors"
	"fmt"
)

// The four error classes crossing module boundaries. Repositories map driver
// errors onto these; the API layer maps them onto status codes.

// ValidationError reports invalid caller input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a referenced entity that was required but absent.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a uniqueness violation. Callers that rely on unique
// constraints for idempotence (achievement awards, idempotency keys) treat it
// as a no-op success.
type ConflictError struct {
	Entity string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists for %q", e.Entity, e.Key)
}

// TransientPersistenceError wraps timeouts and connection failures. Reads may
// be retried at the caller's discretion; write retries need an idempotency
// key.
type TransientPersistenceError struct {
	Op  string
	Err error
}

func (e *TransientPersistenceError) Error() string {
	return fmt.Sprintf("transient persistence failure in %s: %v", e.Op, e.Err)
}

func (e *TransientPersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsTransient reports whether err is a TransientPersistenceError.
func IsTransient(err error) bool {
	var te *TransientPersistenceError
	return errors.As(err, &te)
}
