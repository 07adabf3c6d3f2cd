package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Commits   *prometheus.CounterVec
	Rollbacks *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_tx_commits_total",
			Help: "Total number of committed units of work",
		}, []string{"runner"}),
		Rollbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_tx_rollbacks_total",
			Help: "Total number of rolled back units of work",
		}, []string{"runner"}),
	}
}

func (m *Metrics) IncCommits(runner string) {
	m.Commits.WithLabelValues(runner).Inc()
}

func (m *Metrics) IncRollbacks(runner string) {
	m.Rollbacks.WithLabelValues(runner).Inc()
}
