package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrPermissionDenied is wrapped by a SchedulingError when the notification
// dispatcher refuses permission.
var ErrPermissionDenied = stderrors.New("notification permission denied")

// ValidationError reports input rejected before any state changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError with a formatted reason.
func NewValidation(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a storage backend failure.
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence %s of %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SchedulingError wraps a notification dispatcher failure.
type SchedulingError struct {
	Op  string // "permission", "cancel", "schedule"
	Err error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("reminder %s failed: %v", e.Op, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }

// MigrationError reports a subset of legacy data that could not be migrated
// and was replaced with defaults.
type MigrationError struct {
	Subset string
	Err    error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration of %s discarded: %v", e.Subset, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

// IsPersistence reports whether err is or wraps a PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return stderrors.As(err, &target)
}

// IsScheduling reports whether err is or wraps a SchedulingError.
func IsScheduling(err error) bool {
	var target *SchedulingError
	return stderrors.As(err, &target)
}

// IsMigration reports whether err is or wraps a MigrationError.
func IsMigration(err error) bool {
	var target *MigrationError
	return stderrors.As(err, &target)
}
