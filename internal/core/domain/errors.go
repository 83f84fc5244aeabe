package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrMessageNotFound    = errors.New("message not found")
	ErrMessageDeleted     = errors.New("message is deleted")
	ErrStaleSession       = errors.New("session changed while request was in flight")
)

// BackendError describes a non-success response from the chat backend.
type BackendError struct {
	Op     string
	Status int
	Detail string
	// Auth is set for the sign-up/sign-in endpoints, where 4xx answers mean
	// the submitted credentials were rejected.
	Auth bool
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// Is maps status codes onto the sentinel errors so callers can use errors.Is.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return !e.Auth && e.Status == http.StatusUnauthorized
	case ErrInvalidCredentials:
		return e.Auth && (e.Status == http.StatusBadRequest ||
			e.Status == http.StatusUnauthorized ||
			e.Status == http.StatusConflict ||
			e.Status == http.StatusUnprocessableEntity)
	case ErrMessageNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
