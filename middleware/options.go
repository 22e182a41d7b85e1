package middleware

import (
	"net/http"

	"github.com/rs/zerolog"
)

// ErrorHandler is called when validation or authentication fails.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Options configures middleware behavior.
type Options struct {
	Security        *SecurityRegistry
	ValidateRequest bool
	// EnforceSecurity applies the described security requirements. Without it
	// every operation is treated as public.
	EnforceSecurity bool
	// MaxBodyBytes caps the buffered request body. Zero means no limit.
	MaxBodyBytes int64
	ErrorHandler ErrorHandler
	Logger       zerolog.Logger
}

// DefaultOptions returns options with request validation on and security off.
func DefaultOptions() *Options {
	return &Options{
		Security:        NewSecurityRegistry(),
		ValidateRequest: true,
		Logger:          zerolog.Nop(),
	}
}
