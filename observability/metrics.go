package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics records engine operation activity served over the HTTP API.
type VaultMetrics struct {
	operations   *prometheus.CounterVec
	liquidations prometheus.Counter
	latency      *prometheus.HistogramVec
}

var (
	vaultMetricsOnce sync.Once
	vaultRegistry    *VaultMetrics
)

// Metrics returns the lazily-initialised metrics registry shared by the
// service handlers.
func Metrics() *VaultMetrics {
	vaultMetricsOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total engine operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "engine",
				Name:      "liquidations_total",
				Help:      "Count of completed liquidations.",
			}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "synthvault",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for HTTP operation handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			vaultRegistry.operations,
			vaultRegistry.liquidations,
			vaultRegistry.latency,
		)
	})
	return vaultRegistry
}

// RecordOperation counts one engine operation with its outcome label.
func (m *VaultMetrics) RecordOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// RecordLiquidation counts one completed liquidation.
func (m *VaultMetrics) RecordLiquidation() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}

// ObserveLatency records a handler duration in seconds.
func (m *VaultMetrics) ObserveLatency(op string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(op).Observe(seconds)
}
