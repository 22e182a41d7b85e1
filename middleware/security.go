package middleware

import (
	"context"
	"net/http"
	"strings"
)

// SecurityHandler validates credentials for a specific security scheme.
type SecurityHandler interface {
	Handle(r *http.Request) (*SecurityContext, error)
}

// TokenCheck accepts or rejects a presented token.
type TokenCheck func(ctx context.Context, token string) error

// BearerHandler validates HTTP Bearer authentication.
type BearerHandler TokenCheck

// Handle implements SecurityHandler.
func (h BearerHandler) Handle(r *http.Request) (*SecurityContext, error) {
	token := ExtractBearerToken(r)
	if token == "" {
		return nil, NewUnauthorizedError("bearer", "missing bearer token")
	}
	if err := h(r.Context(), token); err != nil {
		return nil, err
	}
	return &SecurityContext{Token: token}, nil
}

// APIKeyHandler validates an API key carried in a header or query parameter.
type APIKeyHandler struct {
	Check    TokenCheck
	Location string
	Name     string
}

// Handle implements SecurityHandler.
func (h APIKeyHandler) Handle(r *http.Request) (*SecurityContext, error) {
	key := ExtractAPIKey(r, h.Location, h.Name)
	if key == "" {
		return nil, NewUnauthorizedError("apiKey", "missing API key")
	}
	if err := h.Check(r.Context(), key); err != nil {
		return nil, err
	}
	return &SecurityContext{Token: key}, nil
}

// SecurityRegistry holds handlers for named security schemes.
type SecurityRegistry struct {
	handlers map[string]SecurityHandler
}

func NewSecurityRegistry() *SecurityRegistry {
	return &SecurityRegistry{handlers: make(map[string]SecurityHandler)}
}

// Register adds a handler for a named security scheme.
func (r *SecurityRegistry) Register(name string, handler SecurityHandler) {
	r.handlers[name] = handler
}

// RegisterBearer registers a bearer token check.
func (r *SecurityRegistry) RegisterBearer(name string, check TokenCheck) {
	r.Register(name, BearerHandler(check))
}

// RegisterAPIKey registers an API key check.
func (r *SecurityRegistry) RegisterAPIKey(name string, check TokenCheck, location, paramName string) {
	r.Register(name, APIKeyHandler{Check: check, Location: location, Name: paramName})
}

// Get returns the handler for a scheme, or nil if not registered.
func (r *SecurityRegistry) Get(name string) SecurityHandler {
	if r == nil {
		return nil
	}
	return r.handlers[name]
}

// ExtractBearerToken extracts the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return auth[7:]
	}
	return ""
}

// ExtractAPIKey extracts an API key from the specified location.
func ExtractAPIKey(r *http.Request, location, name string) string {
	switch location {
	case "header":
		return r.Header.Get(name)
	case "query":
		return r.URL.Query().Get(name)
	}
	return ""
}
