package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the session module.
type Metrics struct {
	// Login attempts by result
	LoginAttempts *prometheus.CounterVec
}

// New creates a Metrics instance with all session module metrics registered.
func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_session_login_attempts_total",
			Help: "Total login attempts by result",
		}, []string{"result"}), // result: "success", "invalid_password", "not_configured"
	}
}

// IncrementLogin records a login attempt outcome.
func (m *Metrics) IncrementLogin(result string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(result).Inc()
	}
}
