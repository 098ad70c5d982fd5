// Package errors provides structured error types for figcomp.
//
// Every failure a figure build can hit falls into one of three categories:
//
//   - CONFIG_ERROR: the figure description is malformed or semantically invalid
//     (unknown node shape, out-of-range label position, empty Row/Col, ...)
//   - ASSET_ERROR: a referenced image is missing, unreadable or undecodable
//   - IO_ERROR: the output figure cannot be written
//
// Errors carry a human-readable message naming the offending node (tree position
// and source line) so users can locate the entry in their figure file.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfig, "%s: size must be positive, got %v", where, size)
//	if errors.Is(err, errors.ErrCodeConfig) {
//	    // invalid figure description
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeAsset, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the figcomp failure taxonomy.
const (
	ErrCodeConfig   Code = "CONFIG_ERROR"
	ErrCodeAsset    Code = "ASSET_ERROR"
	ErrCodeIO       Code = "IO_ERROR"
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

// Config is shorthand for New(ErrCodeConfig, ...).
func Config(format string, args ...any) *Error {
	return New(ErrCodeConfig, format, args...)
}

// Is reports whether err has the given error code.
// It returns the code of the outermost *Error in the chain.
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
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// Kind returns a short human label for the error category, used as a prefix on
// the CLI's error stream.
func Kind(err error) string {
	switch GetCode(err) {
	case ErrCodeConfig:
		return "config error"
	case ErrCodeAsset:
		return "asset error"
	case ErrCodeIO:
		return "io error"
	case ErrCodeInternal:
		return "internal error"
	default:
		return "error"
	}
}
