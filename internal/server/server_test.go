package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/piglet/internal/engine"
	"github.com/kolah/piglet/internal/importerr"
	"github.com/kolah/piglet/internal/model"
)

const minimalDoc = `{"openapi":"3.0.0","info":{"title":"T"},"paths":{"/x":{"get":{"operationId":"Op","responses":{"200":{"description":"OK"}}}}}}`

type importerFunc func(ctx context.Context, files [][]byte, origin string) ([]model.Collection, error)

func (f importerFunc) Import(ctx context.Context, files [][]byte, origin string) ([]model.Collection, error) {
	return f(ctx, files, origin)
}

func importBody(t *testing.T, files []string, origin string) string {
	t.Helper()
	data, err := json.Marshal(importRequest{Files: files, Origin: origin})
	require.NoError(t, err)
	return string(data)
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, err := New(engine.New(), WithToken("secret"))
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestImport(t *testing.T) {
	s, err := New(engine.New(engine.WithSeed(1)))
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/v1/imports", importBody(t, []string{minimalDoc}, "https://example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Collections, 1)
	require.Equal(t, "T", resp.Collections[0].Name)
	require.Equal(t, "https://example.com", resp.Collections[0].Auth.BaseURL)
	require.Len(t, resp.Collections[0].Requests, 1)
	require.Equal(t, "Op", resp.Collections[0].Requests[0].Name)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name       string
		importer   Importer
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "unparseable document",
			importer:   engine.New(),
			body:       `{"files":["{not json"]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid_file_format",
		},
		{
			name: "deref error",
			importer: importerFunc(func(context.Context, [][]byte, string) ([]model.Collection, error) {
				return nil, importerr.Fatal(importerr.KindDerefError, errors.New("nothing converted"))
			}),
			body:       `{"files":["x"]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "deref_error",
		},
		{
			name: "unexpected failure",
			importer: importerFunc(func(context.Context, [][]byte, string) ([]model.Collection, error) {
				return nil, errors.New("disk on fire")
			}),
			body:       `{"files":["x"]}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
		{
			name:       "empty file list",
			importer:   engine.New(),
			body:       `{"files":[]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "missing file list",
			importer:   engine.New(),
			body:       `{"origin":"https://example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.importer)
			require.NoError(t, err)

			rec := do(t, s, http.MethodPost, "/v1/imports", tt.body, nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestImportPassesFilesInOrder(t *testing.T) {
	var got []string
	var gotOrigin string
	s, err := New(importerFunc(func(_ context.Context, files [][]byte, origin string) ([]model.Collection, error) {
		for _, f := range files {
			got = append(got, string(f))
		}
		gotOrigin = origin
		return nil, nil
	}))
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/v1/imports", importBody(t, []string{"a", "b", "c"}, "http://o"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"collections":[]}`, rec.Body.String())
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, "http://o", gotOrigin)
}

func TestTokenRequired(t *testing.T) {
	s, err := New(engine.New(), WithToken("secret"))
	require.NoError(t, err)
	body := importBody(t, []string{minimalDoc}, "")

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"wrong bearer", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"bearer", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"token header", map[string]string{TokenHeader: "secret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/imports", body, tt.headers)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestDescription(t *testing.T) {
	secured, err := Description(true)
	require.NoError(t, err)
	require.Contains(t, string(secured), "bearerAuth: []")

	open, err := Description(false)
	require.NoError(t, err)
	require.NotContains(t, string(open), "- bearerAuth: []")
	require.Contains(t, string(open), "securitySchemes:")
	require.Contains(t, string(open), "/v1/imports:")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, err := New(engine.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	cancel()
	require.NoError(t, <-done)
}
