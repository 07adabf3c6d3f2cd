package authz

import (
	"net/http"

	"avd/pkg/platform/httputil"
)

// Require returns HTTP middleware that authorizes the request against req.
// The operation label is the route pattern the middleware guards.
func (g *Gate) Require(operation string, req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := g.Authorize(r.Context(), operation, req); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
