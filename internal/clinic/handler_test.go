package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passthrough(next http.Handler) http.Handler { return next }

func TestHandlerGetSettings(t *testing.T) {
	h := NewHandler(NewMemoryStore("UTC"), "default", nil)
	rec := httptest.NewRecorder()
	h.Routes(passthrough).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "default", got.ClinicID)
}

func TestHandlerUpdateSettings(t *testing.T) {
	store := NewMemoryStore("UTC")
	h := NewHandler(store, "default", nil)

	body := `{"name":"Riverside","support_phone":"555-0100","timezone":"America/Denver"}`
	rec := httptest.NewRecorder()
	h.Routes(passthrough).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := store.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, "Riverside", saved.Name)
	assert.Equal(t, "555-0100", saved.SupportPhone)
	assert.Equal(t, "America/Denver", saved.Timezone)
}

func TestHandlerUpdateRejectsBadInput(t *testing.T) {
	h := NewHandler(NewMemoryStore("UTC"), "default", nil)

	for _, body := range []string{`{"timezone":"Nowhere/Land"}`, `{"unknown":true}`, `not json`} {
		rec := httptest.NewRecorder()
		h.Routes(passthrough).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandlerUpdateIsGated(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) })
	}
	h := NewHandler(NewMemoryStore("UTC"), "default", nil)
	rec := httptest.NewRecorder()
	h.Routes(deny).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
