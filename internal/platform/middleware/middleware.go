// Package middleware holds the process-level HTTP middleware: panic recovery,
// access logging and request metrics. Request identity and client metadata
// live in pkg/platform/middleware.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"avd/internal/platform/metrics"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/httputil"
	"avd/pkg/requestcontext"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func record(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// Recovery turns a handler panic into a 500 and logs it.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := record(w)
			defer func() {
				if p := recover(); p != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"panic", fmt.Sprint(p),
						"path", r.URL.Path,
						"request_id", requestcontext.RequestID(r.Context()),
					)
					if !rec.wroteHeader {
						httputil.WriteError(rec, dErrors.New(dErrors.CodeInternal, "internal error"))
					}
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// AccessLog writes one line per request, at warn for 4xx and error for 5xx.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			ctx := r.Context()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", requestcontext.RequestID(ctx)),
			}
			if actor := requestcontext.Actor(ctx); actor != nil {
				attrs = append(attrs, slog.String("actor_id", actor.ID.String()))
			}
			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "request completed", attrs...)
		})
	}
}

// Latency observes request duration under the matched chi route pattern,
// which keeps label cardinality bounded.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start).Seconds())
		})
	}
}
