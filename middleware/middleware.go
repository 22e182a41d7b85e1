// Package middleware validates incoming HTTP requests against the service's
// own OpenAPI description and applies its security requirements.
package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	validator "github.com/pb33f/libopenapi-validator"
	validatorErrors "github.com/pb33f/libopenapi-validator/errors"
)

// Middleware validates requests against an OpenAPI description.
type Middleware struct {
	validator validator.Validator
	model     *libopenapi.DocumentModel[v3.Document]
	options   *Options
}

// New creates middleware from OpenAPI description bytes.
func New(spec []byte, opts *Options) (*Middleware, error) {
	doc, err := libopenapi.NewDocument(spec)
	if err != nil {
		return nil, err
	}

	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	model, err := doc.BuildV3Model()
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = DefaultOptions()
	}

	return &Middleware{
		validator: v,
		model:     model,
		options:   opts,
	}, nil
}

// Handler returns an http.Handler middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.options.EnforceSecurity {
			if err := m.validateSecurity(r); err != nil {
				m.handleAuthError(w, r, err)
				return
			}
		}

		if m.options.ValidateRequest {
			body, err := m.bufferBody(w, r)
			if err != nil {
				m.handleBodyError(w, r, err)
				return
			}
			valid, errs := m.validator.ValidateHttpRequestSync(r)
			if !valid {
				m.handleValidationError(w, r, errs)
				return
			}
			if body != nil {
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
		}

		next.ServeHTTP(w, r)
	})
}

// bufferBody reads the request body so the handler can read it again after
// validation consumed it.
func (m *Middleware) bufferBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	reader := r.Body
	if m.options.MaxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, m.options.MaxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func (m *Middleware) validateSecurity(r *http.Request) error {
	if m.model == nil || m.model.Model.Paths == nil {
		return nil
	}

	op := m.findOperation(r.URL.Path, r.Method)
	if op == nil {
		return nil
	}

	secReqs := op.Security
	if secReqs == nil {
		secReqs = m.model.Model.Security
	}

	if len(secReqs) == 0 {
		return nil
	}

	var lastErr error

	// Each item in secReqs is an OR alternative
	for _, req := range secReqs {
		if req.Requirements == nil || req.Requirements.Len() == 0 {
			return nil
		}

		// All schemes in one requirement are AND
		var secCtx *SecurityContext
		allPassed := true

		for pair := req.Requirements.Oldest(); pair != nil; pair = pair.Next() {
			schemeName := pair.Key

			handler := m.options.Security.Get(schemeName)
			if handler == nil {
				lastErr = NewUnauthorizedError(schemeName, "security scheme not configured")
				allPassed = false
				break
			}

			result, err := handler.Handle(r)
			if err != nil {
				lastErr = err
				allPassed = false
				break
			}
			result.Scheme = schemeName
			secCtx = result
		}

		if allPassed {
			*r = *r.WithContext(WithSecurityContext(r.Context(), secCtx))
			return nil
		}
	}

	return lastErr
}

func (m *Middleware) findOperation(path, method string) *v3.Operation {
	if m.model.Model.Paths.PathItems == nil {
		return nil
	}

	for pair := m.model.Model.Paths.PathItems.Oldest(); pair != nil; pair = pair.Next() {
		if matchPath(pair.Key, path) {
			return getOperation(pair.Value, method)
		}
	}
	return nil
}

func matchPath(pattern, path string) bool {
	patternParts := splitPath(pattern)
	pathParts := splitPath(path)

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i, pp := range patternParts {
		if len(pp) > 0 && pp[0] == '{' && pp[len(pp)-1] == '}' {
			continue
		}
		if pp != pathParts[i] {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	if len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	if len(p) == 0 {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	return append(parts, p[start:])
}

func getOperation(pathItem *v3.PathItem, method string) *v3.Operation {
	switch method {
	case http.MethodGet:
		return pathItem.Get
	case http.MethodPost:
		return pathItem.Post
	case http.MethodPut:
		return pathItem.Put
	case http.MethodDelete:
		return pathItem.Delete
	case http.MethodPatch:
		return pathItem.Patch
	case http.MethodHead:
		return pathItem.Head
	case http.MethodOptions:
		return pathItem.Options
	case http.MethodTrace:
		return pathItem.Trace
	}
	return nil
}

func (m *Middleware) handleValidationError(w http.ResponseWriter, r *http.Request, errs []*validatorErrors.ValidationError) {
	err := &ValidationError{
		StatusCode: http.StatusBadRequest,
		Message:    "request validation failed",
		Errors:     errs,
	}

	m.options.Logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("problems", len(errs)).
		Msg("rejected invalid request")

	if m.options.ErrorHandler != nil {
		m.options.ErrorHandler(w, r, err)
		return
	}

	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "validation_error",
		"message": err.Message,
		"details": formatValidationErrors(errs),
	})
}

func (m *Middleware) handleBodyError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	vErr := &ValidationError{StatusCode: status, Message: err.Error()}

	if m.options.ErrorHandler != nil {
		m.options.ErrorHandler(w, r, vErr)
		return
	}

	writeJSON(w, status, map[string]any{
		"error":   "validation_error",
		"message": vErr.Message,
	})
}

func (m *Middleware) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		authErr = NewUnauthorizedError("", err.Error())
	}

	m.options.Logger.Debug().
		Str("scheme", authErr.Scheme).
		Str("path", r.URL.Path).
		Msg("rejected unauthenticated request")

	if m.options.ErrorHandler != nil {
		m.options.ErrorHandler(w, r, authErr)
		return
	}

	writeJSON(w, authErr.StatusCode, map[string]any{
		"error":   "authentication_error",
		"message": authErr.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func formatValidationErrors(errs []*validatorErrors.ValidationError) []map[string]any {
	var result []map[string]any
	for _, e := range errs {
		item := map[string]any{
			"message": e.Message,
		}
		if e.Reason != "" {
			item["reason"] = e.Reason
		}
		if e.HowToFix != "" {
			item["howToFix"] = e.HowToFix
		}
		result = append(result, item)
	}
	return result
}
