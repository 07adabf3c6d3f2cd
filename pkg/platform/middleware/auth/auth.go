// Package auth resolves the bearer token on a request into the acting user.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"avd/pkg/domain"
	"avd/pkg/platform/httputil"
	"avd/pkg/requestcontext"
)

// TokenValidator turns a bearer token into the actor it identifies.
type TokenValidator interface {
	ValidateToken(tokenString string) (*domain.Actor, error)
}

// Authenticate attaches the actor behind a valid bearer token to the context.
// Requests without an Authorization header pass through anonymously; the
// mutation interceptor decides whether the operation needs an identity.
// A present but invalid token is rejected with 401.
func Authenticate(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
					"request_id", requestID,
				)
				httputil.WriteError(w, errUnauthorized("Missing or invalid Authorization header"))
				return
			}

			actor, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, errUnauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}
