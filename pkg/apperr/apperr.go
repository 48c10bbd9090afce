// Package apperr defines the errors handlers hand over to the error
// middleware. Anything that isn't an *Error is treated as internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s, %v", e.Code, e.Message, e.Err)
	}

	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinels survive WithDetails and Wrap
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

func New(status int, code, message string) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy carrying details
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy with a different message and the same code
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap returns a copy that records err as its cause
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "BAD_REQUEST", message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, "FORBIDDEN", message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, "CONFLICT", message)
}

func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

var (
	ErrValidation      = New(http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
	ErrInvalidID       = New(http.StatusBadRequest, "INVALID_ID", "Invalid ID format")
	ErrDuplicateKey    = New(http.StatusConflict, "DUPLICATE_KEY", "Resource already exists")
	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body size exceeds limit")
	ErrTooManyRequests = New(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests")
	ErrResendCooldown  = New(http.StatusTooManyRequests, "RESEND_COOLDOWN", "Please wait before requesting another email")
)

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}
