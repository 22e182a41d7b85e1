package middleware

import (
	"net/http"

	"github.com/pb33f/libopenapi-validator/errors"
)

// ValidationError wraps libopenapi-validator errors with HTTP semantics.
type ValidationError struct {
	StatusCode int
	Message    string
	Errors     []*errors.ValidationError
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError represents a rejected credential.
type AuthError struct {
	StatusCode int
	Scheme     string
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewUnauthorizedError creates a 401 error.
func NewUnauthorizedError(scheme, message string) *AuthError {
	return &AuthError{
		StatusCode: http.StatusUnauthorized,
		Scheme:     scheme,
		Message:    message,
	}
}
