package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenGateAuthorizesHeaderAndBearer(t *testing.T) {
	gate := NewTokenGate("s3cret")

	r := httptest.NewRequest(http.MethodPost, "/admin/ingest", nil)
	r.Header.Set("X-Admin-Token", "s3cret")
	require.True(t, gate.Authorize(r))

	r = httptest.NewRequest(http.MethodPost, "/admin/ingest", nil)
	r.Header.Set("Authorization", "Bearer s3cret")
	require.True(t, gate.Authorize(r))

	r = httptest.NewRequest(http.MethodPost, "/admin/ingest", nil)
	r.Header.Set("X-Admin-Token", "wrong")
	require.False(t, gate.Authorize(r))

	r = httptest.NewRequest(http.MethodPost, "/admin/ingest", nil)
	require.False(t, gate.Authorize(r))
}

func TestTokenGateEmptyTokenDeniesEverything(t *testing.T) {
	gate := NewTokenGate("")

	r := httptest.NewRequest(http.MethodPost, "/admin/ingest", nil)
	r.Header.Set("X-Admin-Token", "")
	require.False(t, gate.Authorize(r))
}

func TestMiddlewareRejectsUnauthorized(t *testing.T) {
	gate := NewTokenGate("s3cret")
	handler := Middleware(gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/ingest", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/admin/ingest", nil)
	r.Header.Set("X-Admin-Token", "s3cret")
	handler.ServeHTTP(rec, r)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
