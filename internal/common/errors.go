package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servercv/dashboard/internal/constants"
)

// Error kinds. Services return an *AppError whose kind is one of these, so
// callers can branch with errors.Is(err, common.ErrLimitExceeded).
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnavailable   = errors.New("unavailable")
)

// AppError is a classified failure of a dashboard operation.
type AppError struct {
	Kind       error
	Code       string
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the error kind, so errors.Is(err, ErrNotFound) works through wrapping.
func (e *AppError) Is(target error) bool {
	return e.Kind == target
}

// Retryable reports whether the caller may retry the same call later.
func (e *AppError) Retryable() bool {
	return e.Kind == ErrUnavailable || e.Kind == ErrRateLimited
}

func InvalidInput(code, message string) *AppError {
	return &AppError{Kind: ErrInvalidInput, Code: code, Message: message}
}

func Unauthorized(code, message string) *AppError {
	return &AppError{Kind: ErrUnauthorized, Code: code, Message: message}
}

func NotFound(code, message string) *AppError {
	return &AppError{Kind: ErrNotFound, Code: code, Message: message}
}

func InvalidState(code, message string) *AppError {
	return &AppError{Kind: ErrInvalidState, Code: code, Message: message}
}

func LimitExceeded(code, message string) *AppError {
	return &AppError{Kind: ErrLimitExceeded, Code: code, Message: message}
}

func RateLimited(retryAfter time.Duration) *AppError {
	return &AppError{
		Kind:       ErrRateLimited,
		Code:       constants.ErrCodeRateLimited,
		Message:    constants.MsgRateLimited,
		RetryAfter: retryAfter,
	}
}

func Unavailable(code, message string, err error) *AppError {
	return &AppError{Kind: ErrUnavailable, Code: code, Message: message, Err: err}
}

// AsAppError extracts the classified error, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsTimeout reports whether err came from an expired or cancelled context.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
