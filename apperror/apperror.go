// Package apperror defines the error kinds shared by the services, the auth core
// and the transport layers, and the single mapping from kind to status code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the boundary translators.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindPermissionDenied
	KindIntegrity
	KindNotFound
	KindConflict
	KindValidation
	KindBadRequest
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindPermissionDenied:
		return "permission_denied"
	case KindIntegrity:
		return "integrity"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// HTTPStatus is the status code API consumers rely on for each kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindBadRequest:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Code is a stable machine-readable
// identifier, Message is safe to show to API consumers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and code, so sentinel values
// declared with New compare equal to wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return New(KindUnauthorized, code, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, "not_found", message)
}

func Conflict(message string) *Error {
	return New(KindConflict, "conflict", message)
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, "bad_request", message)
}

func Validation(message string) *Error {
	return New(KindValidation, "validation_error", message)
}

func RateLimited(message string) *Error {
	return New(KindRateLimited, "rate_limit_exceeded", message)
}

func Integrity(message string, err error) *Error {
	return &Error{Kind: KindIntegrity, Code: "integrity_error", Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: message, Err: err}
}

// PermissionDenied never carries details about which permission was missing.
var PermissionDenied = New(KindPermissionDenied, "permission_denied", "You don't have enough permissions.")

// From classifies any error. Unclassified errors become KindInternal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Something went wrong.", err)
}

// KindOf is shorthand for From(err).Kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return From(err).Kind
}
