// Package domain defines core types, interfaces, and errors for the
// project-management data layer.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates insufficient permissions.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ConstraintKind classifies integrity-constraint violations reported by the
// database.
type ConstraintKind int

// ConstraintKind constants.
const (
	ConstraintNone ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
	ConstraintNotNull
)

// StorageError reports a failure of the backing database: connectivity,
// constraint violations, malformed SQL. The original driver error is kept
// as the cause; Constraint is set when the failure was an integrity
// violation.
type StorageError struct {
	Op         string
	Constraint ConstraintKind
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err is a StorageError caused by a
// unique or primary-key constraint.
func IsUniqueViolation(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Constraint == ConstraintUnique
}

// IsForeignKeyViolation reports whether err is a StorageError caused by a
// reference to a row that does not exist.
func IsForeignKeyViolation(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Constraint == ConstraintForeignKey
}

// CancelledError reports that the caller cancelled the operation.
type CancelledError struct {
	Op  string
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: cancelled", e.Op)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// TimeoutError reports that the operation's deadline expired.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out", e.Op)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ClassifyContextError converts context cancellation and deadline errors into
// CancelledError and TimeoutError. It returns nil for any other error.
func ClassifyContextError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return &CancelledError{Op: op, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Op: op, Err: err}
	}
	return nil
}
