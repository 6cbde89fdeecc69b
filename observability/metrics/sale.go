package metrics

import (
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics records node entry point activity and the sale totals.
type SaleMetrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	tokensSold prometheus.Gauge
	fundsUSD   prometheus.Gauge
	delivered  *prometheus.CounterVec
	events     *prometheus.CounterVec
}

var (
	saleOnce     sync.Once
	saleRegistry *SaleMetrics
)

// Sale returns the lazily registered sale metrics.
func Sale() *SaleMetrics {
	saleOnce.Do(func() {
		saleRegistry = NewSaleMetrics(prometheus.DefaultRegisterer)
	})
	return saleRegistry
}

// NewSaleMetrics builds a metrics set registered with reg. Tests pass a fresh
// registry; production code uses Sale.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	m := &SaleMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokensale",
			Name:      "operations_total",
			Help:      "Node entry point invocations segmented by operation and outcome.",
		}, []string{"operation", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokensale",
			Name:      "operation_errors_total",
			Help:      "Rejected operations segmented by operation and error kind.",
		}, []string{"operation", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tokensale",
			Name:      "operation_duration_seconds",
			Help:      "Latency of node entry points including the state commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		tokensSold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tokensale",
			Name:      "tokens_sold",
			Help:      "Cumulative tokens sold in whole-token units.",
		}),
		fundsUSD: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tokensale",
			Name:      "funds_raised_usd",
			Help:      "Cumulative USD raised.",
		}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokensale",
			Name:      "vesting_delivered_tokens_total",
			Help:      "Tokens released from escrow in whole-token units.",
		}, []string{"escrow"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokensale",
			Name:      "events_total",
			Help:      "Committed audit events by type.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.errors, m.latency, m.tokensSold, m.fundsUSD, m.delivered, m.events)
	}
	return m
}

// ObserveOperation records the outcome of one entry point. kind is empty on
// success.
func (m *SaleMetrics) ObserveOperation(operation, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "committed"
	if kind != "" {
		outcome = "rejected"
		m.errors.WithLabelValues(operation, kind).Inc()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetTotals publishes the sale counters. Amounts are 18-decimal fixed point.
func (m *SaleMetrics) SetTotals(tokensSold, fundsRaisedUSD *big.Int) {
	if m == nil {
		return
	}
	m.tokensSold.Set(scaled(tokensSold))
	m.fundsUSD.Set(scaled(fundsRaisedUSD))
}

// AddDelivered records tokens released by an escrow.
func (m *SaleMetrics) AddDelivered(escrow string, amount *big.Int) {
	if m == nil {
		return
	}
	if escrow == "" {
		escrow = "unknown"
	}
	m.delivered.WithLabelValues(escrow).Add(scaled(amount))
}

// ObserveEvent counts one committed audit event.
func (m *SaleMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

var unit = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

func scaled(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), unit).Float64()
	return f
}
