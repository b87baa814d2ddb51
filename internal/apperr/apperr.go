// Package apperr defines the error taxonomy shared by services and the
// HTTP boundary. Services raise these at the point of detection; the
// handler layer translates them into the response envelope exactly once.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code.
type Code string

// Taxonomy codes.
const (
	CodeBadRequest   Code = "BAD_REQUEST"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeInternal     Code = "INTERNAL"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a taxonomy member carrying a stable code, a human message and
// optional field-level details.
type Error struct {
	Code    Code         `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status maps the code to an HTTP status.
func (e *Error) Status() int {
	switch e.Code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest reports malformed input or an invalid state transition.
func BadRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message}
}

// Validation reports malformed input with field-level details.
func Validation(message string, details []FieldError) *Error {
	return &Error{Code: CodeBadRequest, Message: message, Details: details}
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Forbidden reports an authenticated but not permitted request.
func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// NotFound reports an absent resource.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// Internal reports an unexpected failure. The wrapped cause is kept for
// logging but never leaks into the response message.
func Internal(message string) *Error {
	return &Error{Code: CodeInternal, Message: message}
}

// From extracts an *Error from err. Errors outside the taxonomy come
// back as an opaque internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("something went wrong")
}
