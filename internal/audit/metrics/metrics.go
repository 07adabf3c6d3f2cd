package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit persistence.
type Metrics struct {
	Persisted       *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	Dropped         prometheus.Counter
	PersistDuration prometheus.Histogram
}

// New registers audit metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers audit metrics on reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Persisted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_audit_persisted_total",
			Help: "Total number of audit entries persisted, by resource and outcome",
		}, []string{"resource", "success"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_audit_persist_failures_total",
			Help: "Total number of audit entries that could not be persisted",
		}, []string{"resource"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "avd_audit_dropped_total",
			Help: "Total number of audit entries dropped by the circuit breaker or a full buffer",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "avd_audit_persist_duration_seconds",
			Help:    "Time spent persisting one audit entry",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		}),
	}
}

func (m *Metrics) IncPersisted(resource string, success bool) {
	outcome := "false"
	if success {
		outcome = "true"
	}
	m.Persisted.WithLabelValues(resource, outcome).Inc()
}

func (m *Metrics) IncPersistFailures(resource string) {
	m.PersistFailures.WithLabelValues(resource).Inc()
}

func (m *Metrics) IncDropped() {
	m.Dropped.Inc()
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	m.PersistDuration.Observe(seconds)
}
