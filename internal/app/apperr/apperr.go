// Package apperr is the application-layer error that the HTTP adapter maps to a response.
package apperr

import (
	"errors"
	"net/http"
)

// Stable error codes.
const (
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeNoRole                  = "NO_ROLE"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeValidation              = "VALIDATION_ERROR"
	CodeBadRequest              = "BAD_REQUEST"
	CodeConflict                = "CONFLICT"
	CodeDuplicateSubmission     = "DUPLICATE_SUBMISSION"
	CodeDriverConflict          = "DRIVER_CONFLICT"
	CodeAccountLocked           = "ACCOUNT_LOCKED"
	CodeRateLimited             = "RATE_LIMITED"
	CodeIdempotencyKeyInvalid   = "IDEMPOTENCY_KEY_INVALID"
	CodeIdempotencyKeyReuse     = "IDEMPOTENCY_KEY_REUSE"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeInternal                = "INTERNAL"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details map[string]any) *Error {
	out := *e
	out.Details = details
	return &out
}

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

// Validation is a 422 with per-field details.
func Validation(message string, details map[string]any) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidation, Message: message, Details: details}
}
