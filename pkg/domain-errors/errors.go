// Package domainerrors provides coded errors for the service layer.
//
// Services construct these so transports can translate a stable code into a
// protocol status while the message stays human-readable for the operator.
// Infrastructure layers should keep returning sentinel errors
// (pkg/platform/sentinel); services translate them into coded errors at the
// boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and programmatic checks.
type Code string

const (
	// CodeValidation marks a recoverable domain rule rejection, e.g. role
	// ineligibility or insufficient capacity. Always safe to surface.
	CodeValidation Code = "validation"
	// CodeConflict marks a concurrent-modification conflict that persisted
	// past the internal retry.
	CodeConflict Code = "conflict"
	// CodeBadRequest marks malformed input rejected before any domain
	// computation runs.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks a value that failed primitive-level parsing.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation marks a broken model invariant. Services
	// usually re-map this to CodeValidation before surfacing.
	CodeInvariantViolation Code = "invariant_violation"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
)

// Error is a coded error with an operator-readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message, preserving the chain.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// HasCode is an alias of Is kept for call-site readability in services.
func HasCode(err error, code Code) bool { return Is(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
