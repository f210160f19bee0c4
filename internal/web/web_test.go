package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animal-catalog/internal/ports/auth"
)

func TestRenderer_AllPagesParse(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, name := range []string{
		"loading", "login", "home", "animals_list", "animal_form", "animal_details",
		"animal_delete_confirm", "account", "scanner", "not_found",
	} {
		_, ok := r.pages[name]
		assert.True(t, ok, name)
	}
}

func TestRenderer_HeaderDependsOnUser(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, "home", Page{Title: "Início", User: &auth.User{ID: "u1"}}))
	assert.Contains(t, rec.Body.String(), `action="/logout"`)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusNotFound, "not_found", Page{Title: "x"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/login"`)
	assert.NotContains(t, rec.Body.String(), `action="/logout"`)

	require.Error(t, r.Render(httptest.NewRecorder(), http.StatusOK, "missing", Page{}))
}

func TestStatic_ServesScript(t *testing.T) {
	rec := httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/scanner.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "getUserMedia")
	// al volver desde bfcache la página se recarga para abrir un flujo nuevo
	assert.Contains(t, rec.Body.String(), `addEventListener("pageshow"`)
	assert.Contains(t, rec.Body.String(), "e.persisted")
}
