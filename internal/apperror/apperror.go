// Package apperror defines the error taxonomy shared by the API client and
// the controllers that consume it.
//
// Every failure that reaches a user is an *AppError carrying a human-readable
// Message. Its Err field is one of the sentinels below, so callers branch on
// the kind with errors.Is and show the message with err.Error():
//
//	if errors.Is(err, apperror.ErrUnauthorized) {
//	    // stale session: clear it quietly
//	}
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuth         = errors.New("authentication failed") // bad, expired or reused OAuth code
	ErrUnauthorized = errors.New("unauthorized")          // missing, invalid or expired session
	ErrNotFound     = errors.New("not found")             // unknown GitHub username
	ErrRateLimit    = errors.New("rate limit exceeded")   // upstream GitHub quota exhausted
	ErrAPI          = errors.New("api error")             // network failure or unexpected response
)

type AppError struct {
	Err     error  // one of the sentinels above
	Message string // Human-readable error message
	Status  int    // HTTP status returned by the backend, 0 if no response arrived
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Auth reports that the backend rejected an OAuth authorization code.
func Auth(message string) *AppError {
	return &AppError{Err: ErrAuth, Message: message, Status: http.StatusBadRequest}
}

// Unauthorized reports a session the backend no longer accepts.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

// NotFound reports an unknown GitHub user.
func NotFound(username string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("GitHub user %q not found", username),
		Status:  http.StatusNotFound,
	}
}

func RateLimited(message string) *AppError {
	return &AppError{Err: ErrRateLimit, Message: message, Status: http.StatusTooManyRequests}
}

// API reports any other failure. status is 0 when the request never got a response.
func API(status int, message string) *AppError {
	return &AppError{Err: ErrAPI, Message: message, Status: status}
}

// Message returns the human-readable message carried by err, or fallback
// when err is not an *AppError or its message is empty.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
