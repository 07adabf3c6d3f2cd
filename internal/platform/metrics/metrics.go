// Package metrics holds the HTTP-level collectors and the /metrics endpoint.
// Domain packages register their own collectors next to their code.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	Requests        *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "avd_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_http_requests_total",
			Help: "HTTP requests by route and status class",
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
	m.Requests.WithLabelValues(method, route, status).Inc()
}

// Handler serves the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves a specific registry, used by tests.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
