// Package middleware throttles HTTP routes that are not behind the mutation
// interceptor, such as audit queries, using the same fixed-window limiter.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"avd/internal/ratelimit/models"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/httputil"
	"avd/pkg/requestcontext"
)

type Limiter interface {
	Allow(ctx context.Context, identity string, maxRequests int, window time.Duration) (models.Decision, error)
}

type Middleware struct {
	limiter  Limiter
	policy   models.Policy
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for tests and local runs).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter Limiter, policy models.Policy, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		policy:  policy,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit counts each request against the caller's identity. Limiter
// failures let the request through.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled || m.policy.Unlimited() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		identity := models.Identity(requestcontext.Actor(ctx), requestcontext.ClientIP(ctx))

		decision, err := m.limiter.Allow(ctx, identity, m.policy.MaxRequests, m.policy.Window)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"error", err,
				"identity", identity,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		AddHeaders(w, decision)
		if !decision.Allowed {
			httputil.WriteError(w, dErrors.RateLimited(decision.RetryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddHeaders writes the X-RateLimit-* headers for a decision.
func AddHeaders(w http.ResponseWriter, d models.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if d.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}
