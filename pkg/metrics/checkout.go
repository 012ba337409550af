package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records settlement throughput and commit health.
type CheckoutMetrics struct {
	settlements    *prometheus.CounterVec
	commitFailures *prometheus.CounterVec
	commitDuration prometheus.Histogram
	feeWarnings    *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_settlements_total",
		Help: "Committed checkout settlements.",
	}, []string{"method", "tier"})
	commitFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commit_failures_total",
		Help: "Checkout commits that were rolled back.",
	}, []string{"kind"})
	commitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_commit_duration_seconds",
		Help:    "Duration of the settlement commit transaction.",
		Buckets: prometheus.DefBuckets,
	})
	feeWarnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_fee_warnings_total",
		Help: "Fee lookups that fell back to a default rate.",
	}, []string{"kind"})
	reg.MustRegister(settlements, commitFailures, commitDuration, feeWarnings)
	return &CheckoutMetrics{
		settlements:    settlements,
		commitFailures: commitFailures,
		commitDuration: commitDuration,
		feeWarnings:    feeWarnings,
	}
}

func (m *CheckoutMetrics) IncSettlement(method, tier string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(method), normalizeLabel(tier)).Inc()
}

func (m *CheckoutMetrics) IncCommitFailure(kind string) {
	if m == nil || m.commitFailures == nil {
		return
	}
	m.commitFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *CheckoutMetrics) ObserveCommit(duration time.Duration) {
	if m == nil || m.commitDuration == nil {
		return
	}
	m.commitDuration.Observe(duration.Seconds())
}

// IncFeeWarning counts an unknown tier or payment method.
func (m *CheckoutMetrics) IncFeeWarning(kind string) {
	if m == nil || m.feeWarnings == nil {
		return
	}
	m.feeWarnings.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
