// Package errors defines stable error codes for pybreak failure modes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseFailed indicates source text is not valid Python syntax
	ParseFailed ErrorCode = "PARSE_FAILED"
	// ContentUnavailable indicates the revision content provider could not produce text
	ContentUnavailable ErrorCode = "CONTENT_UNAVAILABLE"
	// PatternInvalid indicates a generated search pattern failed to compile
	PatternInvalid ErrorCode = "PATTERN_INVALID"
	// GitUnavailable indicates git is not available or this is not a repository
	GitUnavailable ErrorCode = "GIT_UNAVAILABLE"
	// CacheUnavailable indicates the extraction cache could not be opened
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// ConfigInvalid indicates configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is a pybreak error with a stable code and an optional cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// New creates a new coded error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a new coded error around a cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Newf creates a new coded error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the error code from err, or InternalError for uncoded errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
