package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scenario pipeline.
type Metrics struct {
	// Terminal outcomes by scenario tag and outcome shape
	Outcomes *prometheus.CounterVec

	// Per-stage latency
	StageLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_scenario_outcomes_total",
			Help: "Total pipeline runs by scenario and terminal outcome",
		}, []string{"scenario", "outcome"}), // outcome: "approved", "blocked", "error"

		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_scenario_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
	}
}

// IncrementOutcome records a terminal pipeline outcome.
func (m *Metrics) IncrementOutcome(scenario, outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(scenario, outcome).Inc()
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}
