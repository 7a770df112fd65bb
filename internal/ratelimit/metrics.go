package ratelimit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for rate limiting.
type Metrics struct {
	admissionsTotal *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton rate limit metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

// MustRegister registers the rate limit collectors with the given
// Prometheus registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.admissionsTotal, m.rejectionsTotal)
}

func newMetrics() *Metrics {
	return &Metrics{
		admissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "ratelimit",
				Name:      "admissions_total",
				Help:      "Total number of admitted requests by class",
			},
			[]string{"class"},
		),
		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "ratelimit",
				Name:      "rejections_total",
				Help:      "Total number of rate-limited requests by class",
			},
			[]string{"class"},
		),
	}
}
