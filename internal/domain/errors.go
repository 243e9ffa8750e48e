package domain

import (
	"errors"
	"net/http"
)

// Common sentinel errors used across the engine.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrValidation is returned when input fails validation. It is often
	// wrapped with a more specific message.
	ErrValidation = errors.New("validation failed")
)

// Error is an operational error with an HTTP status. "Operational" means
// the failure is an expected part of handling requests (bad input, a
// missing entity, a denied permission) as opposed to a programming
// fault.
type Error struct {
	// Name is the declared error name, e.g. "ValidationError".
	Name string

	// Message is the client-facing description.
	Message string

	// StatusCode is the HTTP status to report.
	StatusCode int

	// Code is an optional application-level error code.
	Code string

	// ValidationErrors maps field names to failure messages. Only set on
	// validation errors.
	ValidationErrors map[string]string

	// Operational marks the error as expected. Always true for errors
	// built by this package's constructors.
	Operational bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ErrorName returns the declared name of the error.
func (e *Error) ErrorName() string {
	return e.Name
}

// IsOperational reports whether the failure was an expected one.
func (e *Error) IsOperational() bool {
	return e.Operational
}

// NewValidationError builds a 400 error carrying a field-to-message map.
func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{
		Name:             "ValidationError",
		Message:          message,
		StatusCode:       http.StatusBadRequest,
		ValidationErrors: fields,
		Operational:      true,
	}
}

// NewBusinessError builds a 409 error with an application-level code.
func NewBusinessError(message, code string) *Error {
	return &Error{
		Name:        "BusinessError",
		Message:     message,
		StatusCode:  http.StatusConflict,
		Code:        code,
		Operational: true,
	}
}

// NewNotFoundError builds a 404 error.
func NewNotFoundError(message string) *Error {
	return &Error{
		Name:        "NotFoundError",
		Message:     message,
		StatusCode:  http.StatusNotFound,
		Operational: true,
	}
}

// NewUnauthorizedError builds a 401 error.
func NewUnauthorizedError(message string) *Error {
	return &Error{
		Name:        "UnauthorizedError",
		Message:     message,
		StatusCode:  http.StatusUnauthorized,
		Operational: true,
	}
}

// NewForbiddenError builds a 403 error.
func NewForbiddenError(message string) *Error {
	return &Error{
		Name:        "ForbiddenError",
		Message:     message,
		StatusCode:  http.StatusForbidden,
		Operational: true,
	}
}

// NewHTTPError builds a generic operational error with the given status.
func NewHTTPError(message string, statusCode int) *Error {
	return &Error{
		Name:        "HTTPError",
		Message:     message,
		StatusCode:  statusCode,
		Operational: true,
	}
}
