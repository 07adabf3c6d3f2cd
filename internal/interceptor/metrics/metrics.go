package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_mutation_calls_total",
			Help: "Total number of intercepted mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "avd_mutation_duration_seconds",
			Help:    "Time spent in intercepted mutations, including rate limiting and audit",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncCalls(operation, outcome string) {
	m.Calls.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	m.Duration.WithLabelValues(operation).Observe(seconds)
}
