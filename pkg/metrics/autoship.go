package metrics

import "github.com/prometheus/client_golang/prometheus"

// AutoshipRunMetrics records batch run outcomes.
type AutoshipRunMetrics struct {
	outcomes  *prometheus.CounterVec
	batchSize prometheus.Histogram
}

// NewAutoshipRunMetrics registers the autoship run metrics on the provided
// registerer.
func NewAutoshipRunMetrics(reg prometheus.Registerer) *AutoshipRunMetrics {
	if reg == nil {
		return &AutoshipRunMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoship_run_outcomes_total",
		Help: "Terminal outcomes of processed autoship subscriptions.",
	}, []string{"state"})
	batchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoship_run_batch_size",
		Help:    "Number of candidate subscriptions per batch run.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	reg.MustRegister(outcomes, batchSize)
	return &AutoshipRunMetrics{
		outcomes:  outcomes,
		batchSize: batchSize,
	}
}

// IncOutcome increments the counter for one subscription's terminal state.
func (m *AutoshipRunMetrics) IncOutcome(state string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(state)).Inc()
}

// ObserveBatchSize records how many candidates one batch processed.
func (m *AutoshipRunMetrics) ObserveBatchSize(size int) {
	if m == nil || m.batchSize == nil {
		return
	}
	m.batchSize.Observe(float64(size))
}
