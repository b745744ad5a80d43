package amm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics disables
// instrumentation; every record method is nil-safe.
type Metrics struct {
	TradesTotal      *prometheus.CounterVec
	TradeLatency     prometheus.Histogram
	TradeImpactBps   prometheus.Histogram
	LiquidityEvents  *prometheus.CounterVec
	PoolsTotal       prometheus.Gauge
	PoolStatus       *prometheus.GaugeVec
	InvariantBreaks  *prometheus.CounterVec
	LockTimeouts     *prometheus.CounterVec
	SnapshotDuration prometheus.Histogram
}

// NewMetrics registers the engine collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "trades_total",
			Help:      "Trades processed, by pair, side, and outcome.",
		}, []string{"pair", "side", "status"}),
		TradeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "trade_latency_seconds",
			Help:      "Wall time of trade execution including lock wait.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		TradeImpactBps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "trade_price_impact_bps",
			Help:      "Price impact of executed trades in basis points.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		LiquidityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "liquidity_events_total",
			Help:      "Liquidity adds and removals, by pair and outcome.",
		}, []string{"pair", "op", "status"}),
		PoolsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "pools_total",
			Help:      "Number of registered pools.",
		}),
		PoolStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "pool_status",
			Help:      "Pool lifecycle state (1 for the current state).",
		}, []string{"pair", "status"}),
		InvariantBreaks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "invariant_violations_total",
			Help:      "Constant-product invariant violations; pauses the pool.",
		}, []string{"pair"}),
		LockTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "lock_timeouts_total",
			Help:      "Pool lock acquisitions that timed out.",
		}, []string{"pair"}),
		SnapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ammcore",
			Subsystem: "engine",
			Name:      "snapshot_duration_seconds",
			Help:      "Time to assemble an engine snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) recordTrade(pair string, side Side, status string) {
	if m == nil {
		return
	}
	m.TradesTotal.WithLabelValues(pair, string(side), status).Inc()
}

func (m *Metrics) recordImpact(bps int64) {
	if m == nil {
		return
	}
	m.TradeImpactBps.Observe(float64(bps))
}

func (m *Metrics) recordLatency(seconds float64) {
	if m == nil {
		return
	}
	m.TradeLatency.Observe(seconds)
}

func (m *Metrics) recordLiquidity(pair, op, status string) {
	if m == nil {
		return
	}
	m.LiquidityEvents.WithLabelValues(pair, op, status).Inc()
}

func (m *Metrics) setPoolsTotal(n int) {
	if m == nil {
		return
	}
	m.PoolsTotal.Set(float64(n))
}

func (m *Metrics) setPoolStatus(pair string, status Status) {
	if m == nil {
		return
	}
	for _, s := range []Status{StatusActive, StatusPaused, StatusRetired} {
		v := 0.0
		if s == status {
			v = 1.0
		}
		m.PoolStatus.WithLabelValues(pair, string(s)).Set(v)
	}
}

func (m *Metrics) recordInvariantBreak(pair string) {
	if m == nil {
		return
	}
	m.InvariantBreaks.WithLabelValues(pair).Inc()
}

func (m *Metrics) recordLockTimeout(pair string) {
	if m == nil {
		return
	}
	m.LockTimeouts.WithLabelValues(pair).Inc()
}

func (m *Metrics) recordSnapshot(seconds float64) {
	if m == nil {
		return
	}
	m.SnapshotDuration.Observe(seconds)
}
