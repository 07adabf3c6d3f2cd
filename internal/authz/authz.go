// Package authz is the authorization gate on the mutation path: role
// allow-lists and a static role to permission table, with admin allowed
// everything. Denials are distinguishable: unauthenticated callers get
// CodeUnauthorized, authenticated callers lacking a role or permission get
// CodeForbidden naming what is missing.
package authz

import (
	"context"
	"log/slog"
	"strings"

	"avd/internal/authz/metrics"
	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/requestcontext"
)

// Requirement is what an operation demands of its caller. An empty
// requirement only demands authentication. When both fields are set both
// must hold.
type Requirement struct {
	Roles      []domain.Role
	Permission Permission
}

// Roles builds a role allow-list requirement.
func Roles(roles ...domain.Role) Requirement {
	return Requirement{Roles: roles}
}

// Needs builds a permission requirement.
func Needs(p Permission) Requirement {
	return Requirement{Permission: p}
}

func (r Requirement) String() string {
	var parts []string
	if len(r.Roles) > 0 {
		names := make([]string, len(r.Roles))
		for i, role := range r.Roles {
			names[i] = role.String()
		}
		parts = append(parts, "role in ["+strings.Join(names, ", ")+"]")
	}
	if r.Permission != "" {
		parts = append(parts, "permission "+r.Permission.String())
	}
	if len(parts) == 0 {
		return "authenticated"
	}
	return strings.Join(parts, " and ")
}

var errUnauthenticated = dErrors.New(dErrors.CodeUnauthorized, "authentication required")

// RequireRole rejects unauthenticated actors and actors whose role is not in allowed.
func RequireRole(actor *domain.Actor, allowed ...domain.Role) error {
	if !actor.IsAuthenticated() {
		return errUnauthenticated
	}
	for _, r := range allowed {
		if actor.Role == r {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, r := range allowed {
		names[i] = r.String()
	}
	return dErrors.New(dErrors.CodeForbidden,
		"role "+actor.Role.String()+" is not allowed; requires one of: "+strings.Join(names, ", "))
}

// RequirePermission rejects unauthenticated actors and actors whose role does
// not grant p. Admin is always allowed.
func RequirePermission(actor *domain.Actor, p Permission) error {
	if !actor.IsAuthenticated() {
		return errUnauthenticated
	}
	if HasPermission(actor.Role, p) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "missing permission: "+p.String())
}

// Check applies every part of req to actor.
func Check(actor *domain.Actor, req Requirement) error {
	if !actor.IsAuthenticated() {
		return errUnauthenticated
	}
	if len(req.Roles) > 0 {
		if err := RequireRole(actor, req.Roles...); err != nil {
			return err
		}
	}
	if req.Permission != "" {
		return RequirePermission(actor, req.Permission)
	}
	return nil
}

// Gate is Check bound to the request context, with denial logging and metrics.
type Gate struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func NewGate(opts ...Option) *Gate {
	g := &Gate{logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize checks the actor on ctx against req for the named operation.
func (g *Gate) Authorize(ctx context.Context, operation string, req Requirement) error {
	actor := requestcontext.Actor(ctx)
	err := Check(actor, req)
	if err == nil {
		return nil
	}

	reason := "forbidden"
	if dErrors.Is(err, dErrors.CodeUnauthorized) {
		reason = "unauthenticated"
	}
	if g.metrics != nil {
		g.metrics.IncDenied(operation, reason)
	}
	attrs := []any{
		"operation", operation,
		"reason", reason,
		"requirement", req.String(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if actor != nil {
		attrs = append(attrs, "actor_id", actor.ID.String(), "role", actor.Role.String())
	}
	g.logger.WarnContext(ctx, "authorization denied", attrs...)
	return err
}
