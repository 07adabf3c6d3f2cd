package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd/internal/ratelimit/models"
	"avd/internal/ratelimit/service"
	"avd/internal/ratelimit/store/memory"
	"avd/pkg/requestcontext"
	"avd/pkg/testutil"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (models.Decision, error) {
	return models.Decision{}, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newLimiter(t *testing.T) *service.Service {
	t.Helper()
	svc, err := service.New(memory.New())
	require.NoError(t, err)
	return svc
}

func TestRateLimit(t *testing.T) {
	policy := models.Policy{MaxRequests: 2, Window: time.Minute}

	t.Run("rejects the request past the ceiling with a retry hint", func(t *testing.T) {
		h := New(newLimiter(t), policy, slog.Default()).RateLimit(okHandler())

		for range 2 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, testutil.WithActor(httptest.NewRequest(http.MethodGet, "/admin/audit", nil), testutil.Admin))
			require.Equal(t, http.StatusNoContent, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, testutil.WithActor(httptest.NewRequest(http.MethodGet, "/admin/audit", nil), testutil.Admin))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Contains(t, rec.Body.String(), `"error":"rate_limit_exceeded"`)
	})

	t.Run("anonymous callers are keyed by client ip", func(t *testing.T) {
		h := New(newLimiter(t), models.Policy{MaxRequests: 1, Window: time.Minute}, slog.Default()).RateLimit(okHandler())

		send := func(ip string) int {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "curl"))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec.Code
		}
		assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
		assert.Equal(t, http.StatusNoContent, send("10.0.0.2"))
	})

	t.Run("limiter failure lets the request through", func(t *testing.T) {
		h := New(failingLimiter{}, policy, slog.Default()).RateLimit(okHandler())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		h := New(failingLimiter{}, policy, slog.Default(), WithDisabled(true)).RateLimit(okHandler())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})
}
