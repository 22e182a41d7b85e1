package middleware

import "context"

type contextKey string

const securityContextKey contextKey = "piglet:security"

// SecurityContext holds the credentials accepted for a request.
type SecurityContext struct {
	// Scheme is the security scheme name that admitted the request.
	Scheme string
	Token  string
}

// WithSecurityContext stores security context in the request context.
func WithSecurityContext(ctx context.Context, sec *SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey, sec)
}

// GetSecurityContext retrieves security context from the request context.
func GetSecurityContext(ctx context.Context) *SecurityContext {
	if v, ok := ctx.Value(securityContextKey).(*SecurityContext); ok {
		return v
	}
	return nil
}
