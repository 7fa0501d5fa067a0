// Package errors provides structured error types for graingraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP bridge and the libraries
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The taxonomy mirrors the failure classes of grid-to-graph conversion:
//   - INVALID_CONFIG: lattice or volume dimensions are unusable (construction time)
//   - NOT_FOUND: a dataset namespace or time step does not exist in storage
//   - INVALID_FORMAT: a persisted encoding is malformed or truncated
//   - INCONSISTENT: the two encodings of one time step disagree (reported, not raised)
//   - STORAGE: a checkpoint store backend failed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "nx=%d not divisible by gx=%d", nx, gx)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "read %s", key)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Verification results
	ErrCodeInconsistent Code = "INCONSISTENT"

	// Storage errors
	ErrCodeStorage Code = "STORAGE"

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
	var nf *NotFoundError
	return code == ErrCodeNotFound && errors.As(err, &nf)
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return ErrCodeNotFound
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
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return strings.TrimPrefix(nf.Error(), string(ErrCodeNotFound)+": ")
	}
	return err.Error()
}

// NotFoundError reports a missing dataset namespace or time step. Available
// lists the keys that do exist so callers can suggest alternatives.
type NotFoundError struct {
	Dataset   string
	Key       string
	Available []int
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: dataset %s not found", ErrCodeNotFound, e.Dataset)
	}
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s: %s/%s not found", ErrCodeNotFound, e.Dataset, e.Key)
	}
	return fmt.Sprintf("%s: %s/%s not found (available: %s)", ErrCodeNotFound, e.Dataset, e.Key, summarize(e.Available))
}

// Code returns the error code for this error type.
func (e *NotFoundError) Code() Code {
	return ErrCodeNotFound
}

// Is lets errors.Is match a NotFoundError against a coded *Error with NOT_FOUND.
func (e *NotFoundError) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == ErrCodeNotFound
}

// IsNotFound reports whether err is a NotFoundError or a NOT_FOUND coded error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return Is(err, ErrCodeNotFound)
}

// summarize prints at most the first and last five keys.
func summarize(keys []int) string {
	if len(keys) <= 10 {
		return fmt.Sprint(keys)
	}
	return fmt.Sprintf("%v ... %v", keys[:5], keys[len(keys)-5:])
}
