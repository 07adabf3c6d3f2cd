package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions    *prometheus.CounterVec
	StoreErrors  prometheus.Counter
	Degraded     prometheus.Gauge
	SweptWindows prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avd_ratelimit_decisions_total",
			Help: "Total number of rate limit decisions by outcome",
		}, []string{"outcome"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "avd_ratelimit_store_errors_total",
			Help: "Total number of primary rate limit store failures",
		}),
		Degraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "avd_ratelimit_degraded",
			Help: "1 while decisions are served by the fallback store",
		}),
		SweptWindows: factory.NewCounter(prometheus.CounterOpts{
			Name: "avd_ratelimit_swept_windows_total",
			Help: "Total number of idle windows purged from memory",
		}),
	}
}

func (m *Metrics) IncAllowed() {
	m.Decisions.WithLabelValues("allowed").Inc()
}

func (m *Metrics) IncRejected() {
	m.Decisions.WithLabelValues("rejected").Inc()
}

func (m *Metrics) IncStoreErrors() {
	m.StoreErrors.Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}

func (m *Metrics) AddSwept(n int) {
	m.SweptWindows.Add(float64(n))
}
