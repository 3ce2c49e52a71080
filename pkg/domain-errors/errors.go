// Package domainerrors defines the closed set of error codes that services return
// and transports translate into responses.
//
// Stores never return these directly; they return sentinel facts
// (see pkg/platform/sentinel) which services map onto a Code here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The set is closed: callers switch over it
// exhaustively when mapping to a transport.
type Code string

const (
	// CodeConflict: a uniqueness constraint would be violated (tax id, email,
	// vote pair, DID, verkey, client registration).
	CodeConflict Code = "conflict"
	// CodeNotFound: a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidState: the entity is not in the state the operation requires.
	CodeInvalidState Code = "invalid_state"
	// CodeLedger: the external agent/ledger call failed. Local state is unchanged.
	CodeLedger Code = "ledger_error"
	// CodeInternal: infrastructure failure (store unavailable, encoding error).
	CodeInternal Code = "internal_error"

	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate_limited"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error carries a Code, a caller-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error without an underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
// Returns nil when err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain is a domain error with code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain,
// or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message, or an empty string for plain errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
