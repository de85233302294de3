package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics records the outcomes of the money-touching paths:
// checkout attempts, order transitions, and credit awards.
type MarketplaceMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkoutOutcome  *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	creditPoints     prometheus.Counter
}

// NewMarketplaceMetrics registers the marketplace metrics on the provided registerer.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkoutOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by from/to status and outcome.",
	}, []string{"from", "to", "outcome"})
	creditPoints := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "credit_points_awarded_total",
		Help: "Total credit points awarded on delivery.",
	})
	reg.MustRegister(checkoutDuration, checkoutOutcome, transitions, creditPoints)
	return &MarketplaceMetrics{
		checkoutDuration: checkoutDuration,
		checkoutOutcome:  checkoutOutcome,
		transitions:      transitions,
		creditPoints:     creditPoints,
	}
}

// ObserveCheckout records one checkout attempt with its duration.
func (m *MarketplaceMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkoutOutcome == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.checkoutOutcome.WithLabelValues(label).Inc()
	m.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncTransition counts one order status transition attempt.
func (m *MarketplaceMetrics) IncTransition(from, to, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(outcome)).Inc()
}

// AddCreditPoints accumulates awarded credit points.
func (m *MarketplaceMetrics) AddCreditPoints(points int) {
	if m == nil || m.creditPoints == nil || points <= 0 {
		return
	}
	m.creditPoints.Add(float64(points))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
