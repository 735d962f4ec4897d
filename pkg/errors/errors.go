// Package errors defines the typed error taxonomy surfaced to the
// transport boundary. Every failure that crosses a tool call carries a
// machine-readable kind alongside its human-readable message.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindStorage    Kind = "STORAGE"
	KindTimeout    Kind = "TIMEOUT"
	KindInternal   Kind = "INTERNAL"
)

// AppError is an application error with a kind, an optional detail map
// and an optional wrapped cause.
type AppError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches structured context to the error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewValidationError reports malformed or missing arguments.
func NewValidationError(format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports a reference to an unknown record.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with ID %s not found", resource, id),
		Details: map[string]any{"id": id},
	}
}

// NewConflictError reports an operation that contradicts current state.
func NewConflictError(format string, args ...any) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewStorageError reports an unreadable or unwritable store.
func NewStorageError(message string, cause error) *AppError {
	return &AppError{Kind: KindStorage, Message: message, Cause: cause}
}

// NewTimeoutError reports an operation exceeding its deadline.
func NewTimeoutError(format string, args ...any) *AppError {
	return &AppError{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain. Errors that do not carry
// an AppError anywhere in the chain classify as internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the human-readable message without the kind prefix,
// falling back to Error() for untyped errors.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}
