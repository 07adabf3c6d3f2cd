// Package service is the fixed-window rate limiter used on the mutation path.
// A primary store (Redis in production) is guarded by a circuit breaker; while
// the circuit is open decisions come from an in-memory fallback so throttling
// keeps working per instance during an outage.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"avd/internal/ratelimit/metrics"
	"avd/internal/ratelimit/models"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/circuit"
)

type Service struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFallback sets the store used while the primary is failing.
func WithFallback(store Store) Option {
	return func(s *Service) {
		s.fallback = store
	}
}

// WithBreaker overrides the default primary-store circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

func New(primary Store, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, errors.New("rate limit store is required")
	}
	s := &Service{
		primary: primary,
		breaker: circuit.New("ratelimit-store"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Allow counts one request for identity against maxRequests per window.
// A non-positive maxRequests disables throttling.
func (s *Service) Allow(ctx context.Context, identity string, maxRequests int, window time.Duration) (models.Decision, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return models.Decision{}, dErrors.New(dErrors.CodeBadRequest, "rate limit identity is required")
	}
	if maxRequests <= 0 {
		return models.Decision{Allowed: true}, nil
	}
	if window <= 0 {
		return models.Decision{}, dErrors.New(dErrors.CodeBadRequest, "rate limit window must be positive")
	}

	key := models.NewKey(identity)
	decision, err := s.check(ctx, key, maxRequests, window)
	if err != nil {
		return models.Decision{}, err
	}

	if s.metrics != nil {
		if decision.Allowed {
			s.metrics.IncAllowed()
		} else {
			s.metrics.IncRejected()
		}
	}
	if !decision.Allowed {
		s.logger.InfoContext(ctx, "rate limit exceeded",
			"identity", identity,
			"limit", maxRequests,
			"retry_after", decision.RetryAfter,
		)
	}
	return decision, nil
}

func (s *Service) check(ctx context.Context, key string, limit int, window time.Duration) (models.Decision, error) {
	if s.fallback != nil && !s.breaker.Allow() {
		return s.degraded(ctx, key, limit, window)
	}

	decision, err := s.primary.Allow(ctx, key, limit, window)
	if err == nil {
		s.breaker.RecordSuccess()
		if s.metrics != nil {
			s.metrics.SetDegraded(false)
		}
		return decision, nil
	}

	if s.metrics != nil {
		s.metrics.IncStoreErrors()
	}
	if s.breaker.RecordFailure() {
		s.logger.WarnContext(ctx, "rate limit store circuit opened", "error", err)
	}
	if s.fallback == nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}
	s.logger.WarnContext(ctx, "rate limit store failed, using fallback", "error", err)
	return s.degraded(ctx, key, limit, window)
}

func (s *Service) degraded(ctx context.Context, key string, limit int, window time.Duration) (models.Decision, error) {
	if s.metrics != nil {
		s.metrics.SetDegraded(true)
	}
	decision, err := s.fallback.Allow(ctx, key, limit, window)
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}
	decision.Degraded = true
	return decision, nil
}
