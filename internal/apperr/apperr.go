// Package apperr defines the domain error taxonomy and its HTTP mapping.
//
// Access-denied and not-found are deliberately indistinguishable to callers
// outside the owning organization: both surface as non-404 statuses so
// record existence is never leaked.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure.
type Kind int

const (
	// KindUnknown is the catch-all for unexpected failures.
	KindUnknown Kind = iota
	// KindAccessDenied means the actor is not an admin of any organization,
	// or the resolved organization has no mapping to the target entity.
	KindAccessDenied
	// KindInvalidInput means a malformed payload or unknown referenced ids.
	KindInvalidInput
	// KindNotFound means the entity does not exist or is not visible to the
	// caller. Surfaced as 400, not 404.
	KindNotFound
	// KindDataIntegrity means stored state violates an application invariant,
	// e.g. zero or multiple active episodes for one patient.
	KindDataIntegrity
)

// Error is a classified domain error with a stable external code.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to the response status: 401 for access
// denied, 400 for everything else.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindAccessDenied {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func newErr(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// AccessDenied builds an access-denied error.
func AccessDenied(err error) *Error {
	return newErr(KindAccessDenied, "ACCESS_DENIED", err)
}

// AccessDeniedf builds an access-denied error from a format string.
func AccessDeniedf(format string, args ...interface{}) *Error {
	return AccessDenied(fmt.Errorf(format, args...))
}

// InvalidInput builds an invalid-input error.
func InvalidInput(err error) *Error {
	return newErr(KindInvalidInput, "INVALID_INPUT", err)
}

// InvalidInputf builds an invalid-input error from a format string.
func InvalidInputf(format string, args ...interface{}) *Error {
	return InvalidInput(fmt.Errorf(format, args...))
}

// NotFound builds a not-found error with an entity-specific code, e.g.
// "PATIENT_NOT_FOUND".
func NotFound(code string, err error) *Error {
	return newErr(KindNotFound, code, err)
}

// DataIntegrity builds a data-integrity error.
func DataIntegrity(err error) *Error {
	return newErr(KindDataIntegrity, "DATA_INTEGRITY", err)
}

// DataIntegrityf builds a data-integrity error from a format string.
func DataIntegrityf(format string, args ...interface{}) *Error {
	return DataIntegrity(fmt.Errorf(format, args...))
}

// Unknown wraps an unexpected error.
func Unknown(err error) *Error {
	return newErr(KindUnknown, "UNKNOWN_ERROR", err)
}

// KindOf extracts the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf extracts the external code of err, or "UNKNOWN_ERROR".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "UNKNOWN_ERROR"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
