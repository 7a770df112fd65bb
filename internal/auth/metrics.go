package auth

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for authentication decisions.
type Metrics struct {
	decisionsTotal *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton auth metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

// MustRegister registers the auth metric collectors with the given
// Prometheus registry so they appear on the gateway's metrics endpoint.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.decisionsTotal)
}

func newMetrics() *Metrics {
	return &Metrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "auth",
				Name:      "decisions_total",
				Help:      "Total number of authentication decisions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordDecision records one authentication decision.
func (m *Metrics) RecordDecision(outcome string) {
	m.decisionsTotal.WithLabelValues(outcome).Inc()
}
