package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	// Cause is kept for logs only and never serialized.
	Cause error `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Wrap attaches an internal cause to a classified error.
func (e *APIError) Wrap(cause error) *APIError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func Validation(message string) *APIError {
	return New(CodeValidation, message, "", http.StatusBadRequest)
}

// Conflict maps to 400, not 409: a duplicate registration is reported as a bad request.
func Conflict(message string) *APIError {
	return New(CodeConflict, message, "", http.StatusBadRequest)
}

func Unauthorized(message string) *APIError {
	return New(CodeUnauthorized, message, "", http.StatusUnauthorized)
}

func NotFound(message string) *APIError {
	return New(CodeNotFound, message, "", http.StatusNotFound)
}

func Internal(cause error) *APIError {
	return New(CodeInternal, "Something went wrong. Please try again later", "", http.StatusInternalServerError).Wrap(cause)
}

// As reports whether err carries an APIError and returns it.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
