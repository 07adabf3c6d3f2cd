// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services and the mutation interceptor.
// By keeping this package free of net/http dependencies, services can import only
// what they need without pulling in HTTP-related code.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware and tests (set values):
//
//	ctx = requestcontext.WithActor(ctx, &domain.Actor{ID: 7, Role: domain.RoleHR})
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"avd/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorKey       struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyActor       = actorKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Actor
// -----------------------------------------------------------------------------

// Actor retrieves the authenticated actor from the context, or nil.
func Actor(ctx context.Context) *domain.Actor {
	if a, ok := ctx.Value(ContextKeyActor).(*domain.Actor); ok {
		return a
	}
	return nil
}

// WithActor injects the authenticated actor. The actor is copied so later
// mutation of the caller's value cannot change request identity.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}
	cp := *actor
	return context.WithValue(ctx, ContextKeyActor, &cp)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
