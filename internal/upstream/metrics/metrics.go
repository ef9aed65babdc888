package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for outbound payment-service calls.
type Metrics struct {
	// Calls by path and outcome code ("ok" or the failure error code)
	Calls *prometheus.CounterVec

	// Call latency by path
	CallLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all upstream call metrics registered.
func New() *Metrics {
	return &Metrics{
		Calls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_upstream_calls_total",
			Help: "Total payment-service calls by path and outcome",
		}, []string{"path", "code"}),

		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_upstream_call_duration_seconds",
			Help:    "Duration of payment-service calls by path",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"path"}),
	}
}

// ObserveCall records one outbound call outcome and its latency.
func (m *Metrics) ObserveCall(path, code string, d time.Duration) {
	if m != nil {
		m.Calls.WithLabelValues(path, code).Inc()
		m.CallLatency.WithLabelValues(path).Observe(d.Seconds())
	}
}
