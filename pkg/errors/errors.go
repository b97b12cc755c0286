// Package errors provides structured error types for dynlayout.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP service and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the layout engine's error taxonomy:
//   - CONFIGURATION: a layout or multilevel pipeline was finalized without a
//     required force, coarsener, placement or flattener
//   - UNDEFINED_GEOMETRY: degenerate geometric input that could not be
//     recovered locally (coincident points for a line relation)
//   - TIMEOUT: a run exceeded the caller's wall-clock budget; no partial
//     layout is returned
//   - INVALID_INPUT: misuse at the graph-building or interchange boundary
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "layout has no force")
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "node %s", id)
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Layout construction errors
	ErrCodeConfiguration     Code = "CONFIGURATION"
	ErrCodeUndefinedGeometry Code = "UNDEFINED_GEOMETRY"

	// Run budget errors
	ErrCodeTimeout  Code = "TIMEOUT"
	ErrCodeCanceled Code = "CANCELED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidOption Code = "INVALID_OPTION"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return code == ErrCodeTimeout
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return ErrCodeTimeout
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// TimeoutError reports a run that exceeded its wall-clock budget.
// The run is abandoned; no partial layout or statistics accompany it.
type TimeoutError struct {
	Stage  string        // Which run was aborted (e.g. "multilevel")
	Budget time.Duration // The budget that was exceeded
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Budget > 0 {
		return fmt.Sprintf("%s run aborted after %s", e.Stage, e.Budget)
	}
	return fmt.Sprintf("%s run aborted", e.Stage)
}

// Code returns the error code for this error type.
func (e *TimeoutError) Code() Code {
	return ErrCodeTimeout
}
