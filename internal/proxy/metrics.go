package proxy

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for proxy fetches.
type Metrics struct {
	fetchesTotal *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton proxy metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

// MustRegister registers the proxy collectors with the given registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.fetchesTotal)
}

func newMetrics() *Metrics {
	return &Metrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "proxy",
				Name:      "fetches_total",
				Help:      "Total number of proxy fetches by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordFetch records one proxy fetch outcome.
func (m *Metrics) RecordFetch(outcome string) {
	m.fetchesTotal.WithLabelValues(outcome).Inc()
}
