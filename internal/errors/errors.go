// Package errors provides standardized domain errors with codes for the read-along engine.
//
// Usage:
//
//	// In services - return typed errors
//	if entry == nil {
//	    return errors.Validation("sentence id does not exist in chapter")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrMedia) {
//	    // degrade to text-only session
//	}
//
//	// Or switch on the Code
//	var engineErr *errors.Error
//	if errors.As(err, &engineErr) {
//	    switch engineErr.Code {
//	    case errors.CodeInput:
//	        // fatal to initialization
//	    case errors.CodePersistence:
//	        // best-effort, keep going
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the engine.
//
// The codes mirror the failure taxonomy of the engine: INPUT failures are
// fatal to initialization, MEDIA and PERSISTENCE failures degrade the
// session, VALIDATION failures are rejected locally with no state change.
const (
	CodeInput       Code = "INPUT"
	CodeMedia       Code = "MEDIA"
	CodePersistence Code = "PERSISTENCE"
	CodeValidation  Code = "VALIDATION"
	CodeNotFound    Code = "NOT_FOUND"
	CodeInternal    Code = "INTERNAL"
)

// Fatal reports whether an error with this code should abort initialization.
// Only input errors are fatal; everything else degrades the session.
func (c Code) Fatal() bool {
	return c == CodeInput
}

// Error is an engine error with a code, message, and optional cause.
// Details carries per-field messages for validation failures.
type Error struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// WithMessage returns a new error with a custom message, keeping the code.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Details: e.Details,
		cause:   e.cause,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrInput       = &Error{Code: CodeInput, Message: "invalid input artifact"}
	ErrMedia       = &Error{Code: CodeMedia, Message: "media unavailable"}
	ErrPersistence = &Error{Code: CodePersistence, Message: "persistence failure"}
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal    = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// Input creates an input-artifact error.
func Input(msg string) *Error {
	return &Error{Code: CodeInput, Message: msg}
}

// Inputf creates an input-artifact error with formatted message.
func Inputf(format string, args ...any) *Error {
	return &Error{Code: CodeInput, Message: fmt.Sprintf(format, args...)}
}

// Media creates a media error.
func Media(msg string) *Error {
	return &Error{Code: CodeMedia, Message: msg}
}

// Mediaf creates a media error with formatted message.
func Mediaf(format string, args ...any) *Error {
	return &Error{Code: CodeMedia, Message: fmt.Sprintf(format, args...)}
}

// Persistence creates a persistence error.
func Persistence(msg string) *Error {
	return &Error{Code: CodePersistence, Message: msg}
}

// Persistencef creates a persistence error with a formatted message.
func Persistencef(format string, args ...any) *Error {
	return &Error{Code: CodePersistence, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error carrying per-field messages.
func ValidationWithDetails(msg string, details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
