// Package errs defines the coded error type returned by the training
// workflow. Callers classify failures with errors.Is against the
// sentinels below; the Message is safe to show to an operator.
package errs

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error class.
type Code string

const (
	// CodePrecondition marks a guard that rejected a transition or
	// deletion. The caller can correct the situation and retry.
	CodePrecondition Code = "precondition"
	// CodeInvariant marks a write that would break a structural invariant.
	CodeInvariant Code = "invariant_violation"
	// CodeUnsupported marks an operation that is never allowed.
	CodeUnsupported Code = "unsupported_operation"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrPrecondition = &Error{Code: CodePrecondition}
	ErrInvariant    = &Error{Code: CodeInvariant}
	ErrUnsupported  = &Error{Code: CodeUnsupported}
	ErrNotFound     = &Error{Code: CodeNotFound}
)

// Error is a domain error with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Precondition returns a guard failure citing the unmet condition.
func Precondition(format string, args ...any) *Error {
	return &Error{Code: CodePrecondition, Message: fmt.Sprintf(format, args...)}
}

// Invariant returns a structural invariant violation.
func Invariant(format string, args ...any) *Error {
	return &Error{Code: CodeInvariant, Message: fmt.Sprintf(format, args...)}
}

// Unsupported returns an error for an operation the design forbids.
func Unsupported(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupported, Message: fmt.Sprintf(format, args...)}
}

// NotFound wraps a store miss for the named entity.
func NotFound(entity, id string, cause error) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("%s %s not found", entity, id),
		Metadata: map[string]string{"entity": entity, "id": id},
		Cause:    cause,
	}
}

// WithMetadata returns a copy of e carrying the given key/value.
func (e *Error) WithMetadata(key, value string) *Error {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	cp := *e
	cp.Metadata = md
	return &cp
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
