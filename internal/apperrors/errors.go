package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError covers malformed or incomplete input, including the
// structural checks on generated quizzes. Nothing is persisted when one
// of these is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthError means the request carried no usable credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// AuthorizationError means the resource exists but belongs to another user.
// Kept distinct from NotFoundError so callers can answer 403 instead of 404.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// UpstreamError wraps a failure from the generative-AI call. Quota is set
// when the underlying message indicates quota or rate-limit exhaustion so
// the UI can show a specific message.
type UpstreamError struct {
	Message string
	Quota   bool
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError wraps a store failure. Logged with context, never retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Validation(format string, v ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, v...)}
}

func Auth(message string) error {
	return &AuthError{Message: message}
}

func Forbidden(message string) error {
	return &AuthorizationError{Message: message}
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func Upstream(message string, quota bool, err error) error {
	return &UpstreamError{Message: message, Quota: quota, Err: err}
}

func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsQuota reports whether err is an upstream failure flagged as quota
// exhaustion.
func IsQuota(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Quota
}

// StatusCode maps an error from the service layer to an HTTP status.
func StatusCode(err error) int {
	var (
		ve *ValidationError
		ae *AuthError
		ze *AuthorizationError
		ne *NotFoundError
		ue *UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &ze):
		return http.StatusForbidden
	case errors.As(err, &ne):
		return http.StatusNotFound
	case errors.As(err, &ue):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
