package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_RoutesAndPages(t *testing.T) {
	srv := New(Config{Host: "localhost", Port: "0", DataDir: t.TempDir(), Width: 80, Height: 60})
	t.Cleanup(func() { srv.Close() })

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/editor", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/editor", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="layer-list"`)
	assert.Contains(t, rec.Body.String(), `id="export-preview"`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/editor/layers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datastar-patch-elements")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_OpenAPIListsOperations(t *testing.T) {
	srv := New(Config{Host: "localhost", Port: "0", DataDir: t.TempDir()})
	t.Cleanup(func() { srv.Close() })

	paths := srv.OpenAPI().Paths
	for _, p := range []string{
		"/api/v1/export",
		"/api/v1/export/download",
		"/api/v1/layers/{id}/toggle",
		"/api/v1/editor/export",
		"/api/v1/editor/events",
	} {
		assert.Contains(t, paths, p)
	}
	assert.NotNil(t, srv.Services().Export)
}
