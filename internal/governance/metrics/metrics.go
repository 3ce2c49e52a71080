package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance module.
// All methods are safe on a nil receiver so tests can omit metrics.
type Metrics struct {
	VotesCast           *prometheus.CounterVec
	Finalizations       *prometheus.CounterVec
	FinalizeConflicts   prometheus.Counter
	SweepDuration       prometheus.Histogram
	SweepErrors         prometheus.Counter
	LedgerRegistrations *prometheus.CounterVec
	LedgerCallDuration  prometheus.Histogram
	APIKeyLookups       *prometheus.CounterVec
}

// New registers the governance metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the governance metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VotesCast: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govnet_votes_cast_total",
			Help: "Total steward votes accepted, by choice",
		}, []string{"choice"}),
		Finalizations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govnet_client_finalizations_total",
			Help: "Total client finalizations, by outcome and trigger",
		}, []string{"outcome", "trigger"}),
		FinalizeConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "govnet_client_finalize_conflicts_total",
			Help: "Conditional finalize writes that lost to a concurrent finalizer",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "govnet_voting_sweep_duration_seconds",
			Help:    "Duration of one voting expiry sweep",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		SweepErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "govnet_voting_sweep_errors_total",
			Help: "Per-client errors during voting expiry sweeps",
		}),
		LedgerRegistrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govnet_ledger_registrations_total",
			Help: "Ledger registration attempts, by result",
		}, []string{"result"}),
		LedgerCallDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "govnet_ledger_register_nym_duration_seconds",
			Help:    "Duration of register-nym calls to the agent",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		APIKeyLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govnet_api_key_lookups_total",
			Help: "API key resolutions, by tier and result",
		}, []string{"tier", "result"}),
	}
}

func (m *Metrics) IncVoteCast(choice string) {
	if m == nil {
		return
	}
	m.VotesCast.WithLabelValues(choice).Inc()
}

func (m *Metrics) IncFinalization(outcome, trigger string) {
	if m == nil {
		return
	}
	m.Finalizations.WithLabelValues(outcome, trigger).Inc()
}

func (m *Metrics) IncFinalizeConflict() {
	if m == nil {
		return
	}
	m.FinalizeConflicts.Inc()
}

// ObserveSweep records the duration of a sweep.
// Call with time.Now() at the start of the sweep.
func (m *Metrics) ObserveSweep(start time.Time) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncSweepError() {
	if m == nil {
		return
	}
	m.SweepErrors.Inc()
}

func (m *Metrics) IncLedgerRegistration(result string) {
	if m == nil {
		return
	}
	m.LedgerRegistrations.WithLabelValues(result).Inc()
}

// ObserveLedgerCall records the duration of a register-nym call.
func (m *Metrics) ObserveLedgerCall(start time.Time) {
	if m == nil {
		return
	}
	m.LedgerCallDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncAPIKeyLookup(tier, result string) {
	if m == nil {
		return
	}
	m.APIKeyLookups.WithLabelValues(tier, result).Inc()
}
