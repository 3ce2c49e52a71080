package proofexpiry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe on a nil receiver.
type Metrics struct {
	Invalidated prometheus.Counter
	Failures    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Invalidated: f.NewCounter(prometheus.CounterOpts{
			Name: "govnet_proof_requests_invalidated_total",
			Help: "Proof requests abandoned after the holder did not answer in time",
		}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govnet_proof_expiry_failures_total",
			Help: "Proof expiry failures, by stage",
		}, []string{"stage"}),
	}
}

func (m *Metrics) incInvalidated() {
	if m == nil {
		return
	}
	m.Invalidated.Inc()
}

func (m *Metrics) incFailure(stage string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(stage).Inc()
}
