// Package service records the audit trail for every mutation attempt.
//
// Audit logging is best-effort: persistence runs on a context detached from
// the caller's cancellation, bounded by its own timeout, and every failure is
// reported to slog and metrics but never returned. A slow or broken audit
// store therefore cannot fail or block the business operation it describes.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"avd/internal/audit/metrics"
	dErrors "avd/pkg/domain-errors"
	audit "avd/pkg/platform/audit"
	"avd/pkg/platform/circuit"
	"avd/pkg/platform/sentinel"
	"avd/pkg/requestcontext"
)

// DefaultTimeout bounds one persistence attempt.
const DefaultTimeout = 2 * time.Second

type Logger struct {
	store   audit.Store
	sink    audit.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Logger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Logger) {
		l.metrics = m
	}
}

// WithSink overrides the write path, e.g. with a fan-out or an async writer.
// Reads still go to the store.
func WithSink(sink audit.Sink) Option {
	return func(l *Logger) {
		if sink != nil {
			l.sink = sink
		}
	}
}

// WithBreaker skips persistence while the audit store is failing.
func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Logger) {
		l.breaker = b
	}
}

func WithTimeout(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

func New(store audit.Store, opts ...Option) (*Logger, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	l := &Logger{
		store:   store,
		sink:    store,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LogCreate records a successful creation.
func (l *Logger) LogCreate(ctx context.Context, c audit.Context, newValue any) {
	l.LogAudit(ctx, c, audit.Details{NewValue: newValue, Success: true})
}

// LogUpdate records a successful update with the prior state when known.
func (l *Logger) LogUpdate(ctx context.Context, c audit.Context, oldValue, newValue any) {
	l.LogAudit(ctx, c, audit.Details{OldValue: oldValue, NewValue: newValue, Success: true})
}

// LogDelete records a successful deletion and what was removed.
func (l *Logger) LogDelete(ctx context.Context, c audit.Context, oldValue any) {
	l.LogAudit(ctx, c, audit.Details{OldValue: oldValue, Success: true})
}

// LogError records a failed attempt.
func (l *Logger) LogError(ctx context.Context, c audit.Context, message string) {
	l.LogAudit(ctx, c, audit.Details{Success: false, ErrorMessage: message})
}

// LogAudit builds, seals and persists one entry. It never returns an error.
func (l *Logger) LogAudit(ctx context.Context, c audit.Context, d audit.Details) {
	entry := l.buildEntry(ctx, c, d)
	requestID := entry.RequestID

	if l.breaker != nil && !l.breaker.Allow() {
		if l.metrics != nil {
			l.metrics.IncDropped()
		}
		l.logger.WarnContext(ctx, "audit store unhealthy, entry dropped",
			"action", entry.Action,
			"resource_id", entry.ResourceID,
			"request_id", requestID,
		)
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	start := time.Now()
	err := l.sink.Append(pctx, entry)
	if err != nil {
		if l.metrics != nil {
			l.metrics.IncPersistFailures(entry.Resource)
		}
		if l.breaker != nil && l.breaker.RecordFailure() {
			l.logger.ErrorContext(ctx, "audit store circuit opened", "request_id", requestID)
		}
		l.logger.ErrorContext(ctx, "failed to persist audit entry",
			"error", err,
			"action", entry.Action,
			"resource_id", entry.ResourceID,
			"success", entry.Success,
			"request_id", requestID,
		)
		return
	}

	if l.breaker != nil {
		l.breaker.RecordSuccess()
	}
	if l.metrics != nil {
		l.metrics.IncPersisted(entry.Resource, entry.Success)
		l.metrics.ObservePersistDuration(time.Since(start).Seconds())
	}
	l.logger.DebugContext(ctx, "audit entry persisted",
		"audit_id", entry.ID,
		"action", entry.Action,
		"success", entry.Success,
		"request_id", requestID,
	)
}

func (l *Logger) buildEntry(ctx context.Context, c audit.Context, d audit.Details) audit.Entry {
	entry := audit.NewEntry(c, l.now())
	entry.Success = d.Success
	entry.ErrorMessage = d.ErrorMessage
	entry.OldValue = l.encode(ctx, c, "old_value", d.OldValue)
	entry.NewValue = l.encode(ctx, c, "new_value", d.NewValue)
	entry.IPAddress = requestcontext.ClientIP(ctx)
	entry.UserAgent = requestcontext.UserAgent(ctx)
	entry.Client = DescribeClient(entry.UserAgent)
	entry.RequestID = requestcontext.RequestID(ctx)
	entry.Seal()
	return entry
}

// encode serializes a value. Unserializable values are recorded as a JSON
// string describing the failure so the entry is still written.
func (l *Logger) encode(ctx context.Context, c audit.Context, field string, v any) json.RawMessage {
	if v == nil {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		l.logger.WarnContext(ctx, "audit value not serializable",
			"field", field,
			"action", c.Action(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		b, _ = json.Marshal(fmt.Sprintf("unserializable %T", v))
	}
	return b
}

// List returns entries matching the filter, newest first.
func (l *Logger) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "to must not be before from")
	}
	entries, err := l.store.List(ctx, filter.Normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return entries, nil
}

// Latest returns the newest entry for a resource, optionally one resource id.
func (l *Logger) Latest(ctx context.Context, resource, resourceID string) (*audit.Entry, error) {
	if resource == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resource is required")
	}
	entry, err := l.store.Latest(ctx, resource, resourceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no audit entries for "+resource)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit entry")
	}
	return entry, nil
}
