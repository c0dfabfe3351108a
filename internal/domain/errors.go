package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")

	// ErrTransitionNotApplicable is returned when a transition is attempted
	// against a request whose status or workflow it does not handle.
	ErrTransitionNotApplicable = errors.New("transition not applicable for request")

	// ErrLockNotAcquired is returned when another process holds the tracking lock.
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// PatronTypeMappingNotFound is returned when either hop of the patron type
// lookup has no rule. System names the system whose side of the hop failed.
type PatronTypeMappingNotFound struct {
	Hop    int
	System string
	Value  string
}

func (e *PatronTypeMappingNotFound) Error() string {
	if e.Hop == 1 {
		return fmt.Sprintf("unable to map patron type %q from requesting system %q to %s",
			e.Value, e.System, CanonicalContext)
	}
	return fmt.Sprintf("unable to map canonical patron type %q to a patron type at supplying system %q",
		e.Value, e.System)
}

func (e *PatronTypeMappingNotFound) Unwrap() error { return ErrNotFound }

// MappingNotFound is returned when an item type or location lookup has no rule.
type MappingNotFound struct {
	Category string
	Context  string
	Value    string
}

func (e *MappingNotFound) Error() string {
	return fmt.Sprintf("no %s mapping for %q in context %q", e.Category, e.Value, e.Context)
}

func (e *MappingNotFound) Unwrap() error { return ErrNotFound }

// ResolutionError marks resolution outcomes that cannot be retried without an
// operator fixing reference data (missing cluster, cluster without members).
type ResolutionError struct {
	ClusterID string
	Reason    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution failed for cluster %s: %s", e.ClusterID, e.Reason)
}

// TransitionError is the failure recorded when a transition attempt fails.
// AuditData carries whatever structured diagnostics the cause exposed.
type TransitionError struct {
	Transition string
	FromStatus Status
	Message    string
	AuditData  map[string]any
	Cause      error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s from %s failed: %s", e.Transition, e.FromStatus, e.Message)
}

func (e *TransitionError) Unwrap() error { return e.Cause }

// TruncateMessage cuts msg to at most maxLen bytes without splitting a rune.
// A non-positive maxLen disables truncation.
func TruncateMessage(msg string, maxLen int) string {
	if maxLen <= 0 || len(msg) <= maxLen {
		return msg
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
