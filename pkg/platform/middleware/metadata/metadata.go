// Package metadata stamps every request with the values the audit trail needs:
// a request ID, the client address, the raw User-Agent, and a single request time.
package metadata

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"avd/pkg/requestcontext"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID reuses an inbound X-Request-ID or generates a fresh one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientMetadata extracts client IP address and User-Agent from the request
// and captures the request time. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP, honoring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For is "client, proxy1, proxy2"; the first hop is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}
