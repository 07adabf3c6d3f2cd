package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Denied *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Denied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_authz_denied_total",
			Help: "Total number of authorization denials by operation and reason",
		}, []string{"operation", "reason"}),
	}
}

func (m *Metrics) IncDenied(operation, reason string) {
	m.Denied.WithLabelValues(operation, reason).Inc()
}
