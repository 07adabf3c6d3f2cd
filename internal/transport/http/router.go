// Package httptransport assembles the public HTTP surface: the shared
// middleware chain, health and metrics endpoints, and every module's routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"avd/internal/platform/metrics"
	"avd/internal/platform/middleware"
	"avd/pkg/platform/httputil"
	"avd/pkg/platform/middleware/auth"
	"avd/pkg/platform/middleware/metadata"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator auth.TokenValidator
	// MetricsHandler defaults to the process-wide registry.
	MetricsHandler http.Handler
	Checks         map[string]HealthCheck
	Modules        []Registrar
}

const healthTimeout = 2 * time.Second

// NewRouter builds the chi router. Recovery runs outermost so a panic in any
// middleware still produces a JSON 500.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.AccessLog(d.Logger))
	if d.Metrics != nil {
		r.Use(middleware.Latency(d.Metrics))
	}

	r.Get("/health", healthHandler(d.Checks))
	mh := d.MetricsHandler
	if mh == nil {
		mh = metrics.Handler()
	}
	r.Method(http.MethodGet, "/metrics", mh)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(d.TokenValidator, d.Logger))
		for _, m := range d.Modules {
			m.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
