package testutil

import (
	"context"
	"net/http"

	"avd/pkg/domain"
	"avd/pkg/requestcontext"
)

// Actors used across service and handler tests, one per role.
var (
	Admin       = &domain.Actor{ID: 1, Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	HR          = &domain.Actor{ID: 2, Name: "Helena RH", Email: "rh@example.com", Role: domain.RoleHR}
	Manager     = &domain.Actor{ID: 3, Name: "Gil Gestor", Email: "gestor@example.com", Role: domain.RoleManager}
	Contributor = &domain.Actor{ID: 4, Name: "Caio", Email: "caio@example.com", Role: domain.RoleContributor}
)

// AsActor returns a context carrying the actor plus stable request metadata.
// This simulates what the metadata and auth middleware do for a live request.
func AsActor(actor *domain.Actor) context.Context {
	ctx := requestcontext.WithRequestID(context.Background(), "test-request")
	ctx = requestcontext.WithClientMetadata(ctx, "127.0.0.1", "avd-test")
	return requestcontext.WithActor(ctx, actor)
}

// WithActor attaches the actor to the request context.
func WithActor(req *http.Request, actor *domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}
