package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"loyalty-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type staticResolver map[string]model.Identity

func (s staticResolver) Resolve(ctx context.Context, token string) (model.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return model.Identity{}, &model.AuthError{Message: "unknown token"}
}

func identityEcho(t *testing.T, want model.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, want, IdentityFromContext(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestSessionMiddleware(t *testing.T) {
	alice := model.Identity{UserID: "u1", Email: "a@example.com", AccessToken: "lw_a"}
	mw := NewSessionMiddleware(staticResolver{"lw_a": alice})

	t.Run("anonymous passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mw(identityEcho(t, model.Identity{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("x-token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Token", "lw_a")
		rec := httptest.NewRecorder()
		mw(identityEcho(t, alice)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer lw_a")
		rec := httptest.NewRecorder()
		mw(identityEcho(t, alice)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Token", "lw_nope")
		rec := httptest.NewRecorder()
		mw(identityEcho(t, model.Identity{})).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireIdentity(identityEcho(t, model.Identity{})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in first to sync.")
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestRequestIDAndLogging(t *testing.T) {
	var seen string
	h := RequestID(Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
