package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records payment settlement outcomes.
type SettlementMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// Settlement outcome label values.
const (
	OutcomeCompleted        = "completed"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeSuperseded       = "superseded"
	OutcomeFailed           = "failed"
)

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of payment settlements in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_outcomes_total",
		Help: "Payment settlement attempts by trigger and outcome.",
	}, []string{"trigger", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &SettlementMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records how long a settlement attempt took.
func (s *SettlementMetrics) ObserveDuration(trigger string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncOutcome increments the outcome counter for the given trigger.
func (s *SettlementMetrics) IncOutcome(trigger, outcome string) {
	if s == nil || s.outcomes == nil {
		return
	}
	s.outcomes.WithLabelValues(normalizeLabel(trigger), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
