// Package server exposes the import engine over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/importerr"
	"github.com/kolah/piglet/internal/model"
	"github.com/kolah/piglet/middleware"
)

//go:embed openapi.yaml
var description []byte

const (
	DefaultMaxBodyBytes = 32 << 20
	TokenHeader         = "X-Piglet-Token"
	shutdownTimeout     = 10 * time.Second
)

// Importer converts a batch of raw documents into collections.
type Importer interface {
	Import(ctx context.Context, files [][]byte, origin string) ([]model.Collection, error)
}

type Server struct {
	importer Importer
	logger   zerolog.Logger
	token    string
	maxBody  int64
	handler  http.Handler
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithToken requires every import request to carry token, either as a
// bearer token or in the X-Piglet-Token header.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

type importRequest struct {
	Files  []string `json:"files"`
	Origin string   `json:"origin"`
}

type importResponse struct {
	Collections []model.Collection `json:"collections"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func New(importer Importer, opts ...Option) (*Server, error) {
	s := &Server{
		importer: importer,
		logger:   zerolog.Nop(),
		maxBody:  DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	spec, err := Description(s.token != "")
	if err != nil {
		return nil, err
	}

	mwOpts := middleware.DefaultOptions()
	mwOpts.Logger = s.logger
	mwOpts.MaxBodyBytes = s.maxBody
	if s.token != "" {
		mwOpts.EnforceSecurity = true
		mwOpts.Security.RegisterBearer("bearerAuth", s.checkToken)
		mwOpts.Security.RegisterAPIKey("tokenHeader", s.checkToken, "header", TokenHeader)
	}

	mw, err := middleware.New(spec, mwOpts)
	if err != nil {
		return nil, fmt.Errorf("building request validator: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /v1/imports", s.createImport)

	s.handler = s.accessLog(mw.Handler(mux))
	return s, nil
}

// Description returns the embedded service description. Without a token the
// document-level security requirement is dropped so the request validator
// does not demand credentials.
func Description(secured bool) ([]byte, error) {
	if secured {
		return description, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(description, &root); err != nil {
		return nil, fmt.Errorf("parsing service description: %w", err)
	}
	doc := document.Unwrap(&root)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "security" {
			doc.Content = append(doc.Content[:i], doc.Content[i+2:]...)
			break
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding service description: %w", err)
	}
	return out, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) checkToken(_ context.Context, token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return middleware.NewUnauthorizedError("token", "invalid token")
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	files := make([][]byte, len(req.Files))
	for i, f := range req.Files {
		files[i] = []byte(f)
	}

	collections, err := s.importer.Import(r.Context(), files, req.Origin)
	if err != nil {
		if kind := importerr.KindOf(err); kind != "" {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: string(kind), Message: err.Error()})
			return
		}
		s.logger.Error().Err(err).Msg("import failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}

	if collections == nil {
		collections = []model.Collection{}
	}
	writeJSON(w, http.StatusOK, importResponse{Collections: collections})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
