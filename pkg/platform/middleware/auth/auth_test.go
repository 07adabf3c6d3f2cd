package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd/pkg/domain"
	"avd/pkg/requestcontext"
)

type stubValidator struct {
	actor *domain.Actor
	err   error
}

func (s stubValidator) ValidateToken(string) (*domain.Actor, error) { return s.actor, s.err }

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen *domain.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		seen = nil
		w := httptest.NewRecorder()
		Authenticate(stubValidator{}, logger)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Nil(t, seen)
	})

	t.Run("valid token attaches actor", func(t *testing.T) {
		v := stubValidator{actor: &domain.Actor{ID: 3, Role: domain.RoleManager}}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()
		Authenticate(v, logger)(next).ServeHTTP(w, r)
		require.NotNil(t, seen)
		assert.Equal(t, domain.RoleManager, seen.Role)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		Authenticate(stubValidator{err: errors.New("bad signature")}, logger)(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		w := httptest.NewRecorder()
		Authenticate(stubValidator{}, logger)(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
