// Package apperr defines the error taxonomy shared by the service and HTTP layers.
//
// Every expected failure is an oops error carrying one of the codes below. The code
// decides the HTTP status and the envelope status; anything without a known code is
// treated as an internal error.
package apperr

import (
	"net/http"

	"github.com/samber/oops"
)

// Error codes.
const (
	CodeValidation      = "VALIDATION"
	CodeConflict        = "CONFLICT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Validation reports a missing or malformed field.
func Validation(msg string) error {
	return oops.Code(CodeValidation).Errorf("%s", msg)
}

// Conflict reports a uniqueness violation.
func Conflict(msg string) error {
	return oops.Code(CodeConflict).Errorf("%s", msg)
}

// Unauthenticated reports bad credentials or a missing token.
func Unauthenticated(msg string) error {
	return oops.Code(CodeUnauthenticated).Errorf("%s", msg)
}

// Forbidden reports an invalid or expired token.
func Forbidden(msg string) error {
	return oops.Code(CodeForbidden).Errorf("%s", msg)
}

// NotFound reports that no record exists for the requested id.
func NotFound(msg string) error {
	return oops.Code(CodeNotFound).Errorf("%s", msg)
}

// Internal wraps an unexpected failure. operation ends up in the log context only.
func Internal(operation string, err error) error {
	return oops.Code(CodeInternal).With("operation", operation).Wrap(err)
}

// Code returns the taxonomy code of err, or CodeInternal.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return CodeInternal
	}
	switch oopsErr.Code() {
	case CodeValidation:
		return CodeValidation
	case CodeConflict:
		return CodeConflict
	case CodeUnauthenticated:
		return CodeUnauthenticated
	case CodeForbidden:
		return CodeForbidden
	case CodeNotFound:
		return CodeNotFound
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch Code(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// EnvelopeStatus maps err to "fail" for client errors and "error" otherwise.
func EnvelopeStatus(err error) string {
	if Code(err) == CodeInternal {
		return StatusError
	}
	return StatusFail
}

// PublicMessage returns the message that is safe to send to the client. Internal
// errors never leak their detail; fallback is used instead.
func PublicMessage(err error, fallback string) string {
	if Code(err) == CodeInternal {
		return fallback
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return fallback
}

// Context returns the structured context attached to err, for logging.
func Context(err error) map[string]any {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Context()
	}
	return nil
}
