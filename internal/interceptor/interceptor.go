// Package interceptor is the single composition point every state-changing
// operation passes through:
//
//	handler' = RateLimit(Authorize(Audit(handler)))
//
// Each layer is a plain higher-order function over Handler, so transports
// install the same chain whether they are HTTP handlers, CLI commands or jobs.
// Rate-limit and authorization rejections end the call before the handler and
// are not audited. Every call that reaches the handler produces an audit entry,
// and the handler's error is always returned unchanged.
package interceptor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"avd/internal/authz"
	"avd/internal/interceptor/metrics"
	"avd/internal/ratelimit/models"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/audit"
	"avd/pkg/requestcontext"
)

var tracer = otel.Tracer("avd/internal/interceptor")

// Handler is one operation over a typed input.
type Handler[In, Out any] func(ctx context.Context, in In) (Out, error)

// Middleware decorates a Handler.
type Middleware[In, Out any] func(Handler[In, Out]) Handler[In, Out]

// Operation describes a mutation to the chain.
type Operation struct {
	// Name is the dotted action, e.g. "employees.update". Its first segment
	// is the audited resource.
	Name        string
	Requirement authz.Requirement
	// Policy overrides the interceptor's default rate limit when set.
	Policy *models.Policy
}

// Limiter is the fixed-window rate limiter.
type Limiter interface {
	Allow(ctx context.Context, identity string, maxRequests int, window time.Duration) (models.Decision, error)
}

// Authorizer checks the request's actor against an operation requirement.
type Authorizer interface {
	Authorize(ctx context.Context, operation string, req authz.Requirement) error
}

// AuditLogger records audit entries. Implementations never fail the caller.
type AuditLogger interface {
	LogCreate(ctx context.Context, c audit.Context, newValue any)
	LogUpdate(ctx context.Context, c audit.Context, oldValue, newValue any)
	LogDelete(ctx context.Context, c audit.Context, oldValue any)
	LogError(ctx context.Context, c audit.Context, message string)
	LogAudit(ctx context.Context, c audit.Context, d audit.Details)
}

// Interceptor holds the collaborators shared by every wrapped operation.
type Interceptor struct {
	limiter  Limiter
	gate     Authorizer
	audit    AuditLogger
	policy   models.Policy
	critical map[string]struct{}
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Interceptor)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Interceptor) {
		i.metrics = m
	}
}

// WithPolicy sets the default per-identity rate limit.
func WithPolicy(p models.Policy) Option {
	return func(i *Interceptor) {
		i.policy = p
	}
}

// WithCriticalOperations replaces the critical allow-list.
func WithCriticalOperations(names ...string) Option {
	return func(i *Interceptor) {
		i.critical = toSet(names)
	}
}

func New(limiter Limiter, gate Authorizer, auditLogger AuditLogger, opts ...Option) (*Interceptor, error) {
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if gate == nil {
		return nil, errors.New("authorizer is required")
	}
	if auditLogger == nil {
		return nil, errors.New("audit logger is required")
	}
	i := &Interceptor{
		limiter:  limiter,
		gate:     gate,
		audit:    auditLogger,
		policy:   DefaultPolicy,
		critical: toSet(CriticalOperations),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// DefaultPolicy applies when neither the interceptor nor the operation sets one.
var DefaultPolicy = models.Policy{MaxRequests: 100, Window: time.Minute}

// IsCritical reports whether op is on the critical allow-list.
func (i *Interceptor) IsCritical(op string) bool {
	_, ok := i.critical[op]
	return ok
}

// Wrap installs the full chain around h. Critical operations additionally get
// the two-sided critical audit layer inside the regular one.
func Wrap[In, Out any](i *Interceptor, op Operation, h Handler[In, Out]) Handler[In, Out] {
	inner := h
	if i.IsCritical(op.Name) {
		inner = CriticalAudit[In, Out](i, op)(inner)
	}
	chain := RateLimit[In, Out](i, op)(Authorize[In, Out](i, op)(Audit[In, Out](i, op)(inner)))
	return traced(i, op, chain)
}

func traced[In, Out any](i *Interceptor, op Operation, next Handler[In, Out]) Handler[In, Out] {
	return func(ctx context.Context, in In) (Out, error) {
		ctx, span := tracer.Start(ctx, "interceptor."+op.Name,
			trace.WithAttributes(attribute.String("operation", op.Name)))
		defer span.End()

		start := time.Now()
		out, err := next(ctx, in)
		outcome := outcomeOf(err)
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		if i.metrics != nil {
			i.metrics.IncCalls(op.Name, outcome)
			i.metrics.ObserveDuration(op.Name, time.Since(start).Seconds())
		}
		return out, err
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeRateLimited:
		return "rate_limited"
	case dErrors.CodeUnauthorized:
		return "unauthenticated"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeValidation:
		return "invalid"
	default:
		return "error"
	}
}

// RateLimit rejects the call when the caller's window is exhausted. Limiter
// failures are logged and the call proceeds. An operation with its own policy
// is counted in its own window.
func RateLimit[In, Out any](i *Interceptor, op Operation) Middleware[In, Out] {
	policy := i.policy
	scoped := op.Policy != nil
	if scoped {
		policy = *op.Policy
	}
	return func(next Handler[In, Out]) Handler[In, Out] {
		return func(ctx context.Context, in In) (Out, error) {
			if policy.Unlimited() {
				return next(ctx, in)
			}
			identity := models.Identity(requestcontext.Actor(ctx), requestcontext.ClientIP(ctx))
			if scoped {
				identity = models.Scoped(identity, op.Name)
			}
			decision, err := i.limiter.Allow(ctx, identity, policy.MaxRequests, policy.Window)
			if err != nil {
				i.logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"operation", op.Name,
					"request_id", requestcontext.RequestID(ctx),
				)
				return next(ctx, in)
			}
			if !decision.Allowed {
				var zero Out
				return zero, dErrors.RateLimited(decision.RetryAfter)
			}
			return next(ctx, in)
		}
	}
}

// Authorize rejects unauthenticated or unauthorized callers.
func Authorize[In, Out any](i *Interceptor, op Operation) Middleware[In, Out] {
	return func(next Handler[In, Out]) Handler[In, Out] {
		return func(ctx context.Context, in In) (Out, error) {
			if err := i.gate.Authorize(ctx, op.Name, op.Requirement); err != nil {
				var zero Out
				return zero, err
			}
			return next(ctx, in)
		}
	}
}

// Audit records one entry per call: the input as the new value on success,
// the error message on failure. The audit context is captured before the
// handler runs; the resource id is inferred afterwards from the result or
// the input. Handlers that load the record they change hand its prior state
// over with audit.RecordPrior, and the entry then carries both sides.
func Audit[In, Out any](i *Interceptor, op Operation) Middleware[In, Out] {
	verb := verbOf(op.Name)
	return func(next Handler[In, Out]) Handler[In, Out] {
		return func(ctx context.Context, in In) (Out, error) {
			ac := audit.NewContext(requestcontext.Actor(ctx), op.Name, "")
			ctx = audit.WithPriorState(ctx)

			out, err := next(ctx, in)

			ac = ac.WithResourceID(resourceIDOf(out, err, in))
			if err != nil {
				i.audit.LogError(ctx, ac, err.Error())
				return out, err
			}
			prior, known := audit.PriorState(ctx)
			switch {
			case verb == "create":
				i.audit.LogCreate(ctx, ac, in)
			case known && (verb == "delete" || verb == "remove"):
				i.audit.LogDelete(ctx, ac, prior)
			default:
				i.audit.LogUpdate(ctx, ac, prior, in)
			}
			return out, nil
		}
	}
}

// CriticalAudit adds a second, two-sided record for critical operations under
// "<action>.critical": input and result on success, the failure on error.
func CriticalAudit[In, Out any](i *Interceptor, op Operation) Middleware[In, Out] {
	action := op.Name + ".critical"
	return func(next Handler[In, Out]) Handler[In, Out] {
		return func(ctx context.Context, in In) (Out, error) {
			ac := audit.NewContext(requestcontext.Actor(ctx), action, "")

			out, err := next(ctx, in)

			ac = ac.WithResourceID(resourceIDOf(out, err, in))
			if err != nil {
				i.logger.WarnContext(ctx, "critical operation failed",
					"operation", op.Name,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				i.audit.LogAudit(ctx, ac, audit.Details{NewValue: attempt[In, Out]{Input: in}, ErrorMessage: err.Error()})
				return out, err
			}
			i.audit.LogAudit(ctx, ac, audit.Details{NewValue: attempt[In, Out]{Input: in, Result: &out}, Success: true})
			return out, nil
		}
	}
}

type attempt[In, Out any] struct {
	Input  In   `json:"input"`
	Result *Out `json:"result,omitempty"`
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
