// Package apperr defines the error kinds the kernel raises. Handlers map
// kinds to HTTP status codes; kernel code never swallows errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and retry policy.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindDuplicateCode
	KindReferentialIntegrity
	KindIllegalTransition
	KindConcurrentTransition
	KindNoTenantContext
	KindApplicationDisabled
	KindAuthFailure
)

// String returns the kind name used in logs and error payloads.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicateCode:
		return "duplicate_code"
	case KindReferentialIntegrity:
		return "referential_integrity"
	case KindIllegalTransition:
		return "illegal_transition"
	case KindConcurrentTransition:
		return "concurrent_transition"
	case KindNoTenantContext:
		return "no_tenant_context"
	case KindApplicationDisabled:
		return "application_disabled"
	case KindAuthFailure:
		return "auth_failure"
	default:
		return "unexpected"
	}
}

// Error is a kernel error carrying a kind and a caller-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

// HTTPStatus maps the kind of err onto an HTTP response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindIllegalTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateCode, KindConcurrentTransition, KindReferentialIntegrity:
		return http.StatusConflict
	case KindApplicationDisabled:
		return http.StatusForbidden
	case KindAuthFailure:
		return http.StatusUnauthorized
	default:
		// NoTenantContext deliberately lands here: requests without a
		// tenant are rejected by middleware before reaching a handler, so
		// hitting it inside one is a programming error.
		return http.StatusInternalServerError
	}
}

func is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func IsValidation(err error) bool           { return is(err, KindValidation) }
func IsNotFound(err error) bool             { return is(err, KindNotFound) }
func IsDuplicateCode(err error) bool        { return is(err, KindDuplicateCode) }
func IsReferentialIntegrity(err error) bool { return is(err, KindReferentialIntegrity) }
func IsIllegalTransition(err error) bool    { return is(err, KindIllegalTransition) }
func IsConcurrentTransition(err error) bool { return is(err, KindConcurrentTransition) }
func IsNoTenantContext(err error) bool      { return is(err, KindNoTenantContext) }
func IsApplicationDisabled(err error) bool  { return is(err, KindApplicationDisabled) }
func IsAuthFailure(err error) bool          { return is(err, KindAuthFailure) }
