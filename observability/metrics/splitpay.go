package metrics

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// SplitpayMetrics tracks ledger calls and balances.
type SplitpayMetrics struct {
	calls         *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	received      prometheus.Counter
	withdrawn     *prometheus.CounterVec
	poolBalance   prometheus.Gauge
	beneficiaries prometheus.Gauge
	paused        prometheus.Gauge
	events        *prometheus.CounterVec
}

var (
	splitpayOnce     sync.Once
	splitpayRegistry *SplitpayMetrics
)

// Splitpay returns the lazily registered ledger metrics.
func Splitpay() *SplitpayMetrics {
	splitpayOnce.Do(func() {
		splitpayRegistry = &SplitpayMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "splitpay",
				Name:      "calls_total",
				Help:      "Ledger calls segmented by operation and outcome code.",
			}, []string{"op", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "splitpay",
				Name:      "call_duration_seconds",
				Help:      "Latency of ledger calls including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			received: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "splitpay",
				Name:      "received_units_total",
				Help:      "Value received through payments, in base units.",
			}),
			withdrawn: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "splitpay",
				Name:      "withdrawn_units_total",
				Help:      "Value paid out, by path (self, delegated, removal).",
			}, []string{"path"}),
			poolBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "splitpay",
				Name:      "pool_balance_units",
				Help:      "Pooled contract balance after the last committed call.",
			}),
			beneficiaries: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "splitpay",
				Name:      "beneficiaries",
				Help:      "Registered beneficiaries after the last committed call.",
			}),
			paused: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "splitpay",
				Name:      "paused",
				Help:      "1 while the pause gate is engaged.",
			}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "splitpay",
				Name:      "events_total",
				Help:      "Committed ledger events by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			splitpayRegistry.calls,
			splitpayRegistry.latency,
			splitpayRegistry.received,
			splitpayRegistry.withdrawn,
			splitpayRegistry.poolBalance,
			splitpayRegistry.beneficiaries,
			splitpayRegistry.paused,
			splitpayRegistry.events,
		)
	})
	return splitpayRegistry
}

func units(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}

// ObserveCall records one ledger call. code is empty on success.
func (m *SplitpayMetrics) ObserveCall(op, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	m.calls.WithLabelValues(op, code).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// AddReceived accumulates accepted payment value.
func (m *SplitpayMetrics) AddReceived(amount *uint256.Int) {
	if m == nil {
		return
	}
	m.received.Add(units(amount))
}

// AddWithdrawn accumulates paid out value for path.
func (m *SplitpayMetrics) AddWithdrawn(path string, amount *uint256.Int) {
	if m == nil {
		return
	}
	m.withdrawn.WithLabelValues(strings.TrimSpace(path)).Add(units(amount))
}

// SetLedger records the post-commit ledger shape.
func (m *SplitpayMetrics) SetLedger(pool *uint256.Int, beneficiaries int, paused bool) {
	if m == nil {
		return
	}
	m.poolBalance.Set(units(pool))
	m.beneficiaries.Set(float64(beneficiaries))
	if paused {
		m.paused.Set(1)
	} else {
		m.paused.Set(0)
	}
}

// RecordEvent counts a committed event.
func (m *SplitpayMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}
