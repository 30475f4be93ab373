// Package domainerrors defines the expected, user-facing error taxonomy.
//
// Services return these; the HTTP layer translates codes into status codes and
// response envelopes. Stores never construct domain errors directly - they
// return sentinel errors (pkg/platform/sentinel) which services wrap here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an expected failure for transport-level translation.
type Code string

// Error codes. The string values double as the machine-readable "error" field
// of HTTP error responses.
const (
	CodeBadRequest       Code = "bad_request"
	CodeInvalidInput     Code = "invalid_input"
	CodeValidation       Code = "validation_error"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeInvalidState     Code = "invalid_state"
	CodeCapacityExceeded Code = "capacity_exceeded"
	CodeInternal         Code = "internal_error"
)

// Error is a domain error carrying a classification code and a human-readable
// message safe to show to callers. An optional cause is preserved for logs but
// never serialized to responses.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that preserves the underlying cause.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the classification code from an error chain.
// Unclassified errors are treated as internal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// MessageOf extracts the user-facing message, or empty for unclassified errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
