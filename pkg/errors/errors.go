// Package errors provides structured error types for stackgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP viewer
//   - Machine-readable error codes for programmatic handling
//   - Mapping of failures to HTTP status codes
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the failure kinds of the loading pipeline:
//   - MALFORMED_PROFILE: profile text does not match the literal grammar
//   - PATH_ESCAPE: a filename resolves outside the data directory
//   - FILE_NOT_FOUND / IO_ERROR: the profile could not be read
//   - INVALID_INPUT: bad flags, query parameters or configuration
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedProfile, "expected ':' at offset %d", off)
//	if errors.Is(err, errors.ErrCodeMalformedProfile) {
//	    // Handle a bad profile
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeMalformedProfile Code = "MALFORMED_PROFILE"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	// Filesystem errors
	ErrCodePathEscape   Code = "PATH_ESCAPE"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeIO           Code = "IO_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
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

// FromFS converts an error returned by the os or io/fs packages into a coded
// error. Missing files become FILE_NOT_FOUND, everything else IO_ERROR. The
// original error stays in the chain, so errors.Is(err, fs.ErrNotExist) keeps
// working. Nil stays nil.
func FromFS(err error, name string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return Wrap(ErrCodeFileNotFound, err, "%s not found", name)
	}
	return Wrap(ErrCodeIO, err, "access %s", name)
}

// HTTPStatus maps an error to the status code the viewer responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case ErrCodePathEscape:
		return http.StatusForbidden
	case ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeMalformedProfile:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
