package amm

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	SwapsTotal        *prometheus.CounterVec
	SwapVolume        *prometheus.CounterVec
	SwapFeesCollected *prometheus.CounterVec
	SwapLatency       prometheus.Histogram
	SwapPriceImpact   prometheus.Histogram

	LiquidityAdded *prometheus.CounterVec
	PoolReserves   *prometheus.GaugeVec

	PoolsCreated prometheus.Counter
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics creates and registers the engine metrics once per process.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			SwapsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swaps_total",
					Help:      "Swaps attempted, by outcome",
				},
				[]string{"pool", "direction", "status"},
			),
			SwapVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swap_volume_total",
					Help:      "Swap input volume in base units",
				},
				[]string{"pool", "asset"},
			),
			SwapFeesCollected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swap_fees_collected_total",
					Help:      "Fees retained by pools in base units",
				},
				[]string{"pool", "asset"},
			),
			SwapLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swap_latency_seconds",
					Help:      "Time spent executing a swap",
					Buckets:   prometheus.DefBuckets,
				},
			),
			SwapPriceImpact: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swap_price_impact_bps",
					Help:      "Price impact of executed swaps in basis points",
					Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
				},
			),
			LiquidityAdded: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "liquidity_added_total",
					Help:      "Liquidity deposited in base units",
				},
				[]string{"pool", "asset"},
			),
			PoolReserves: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "pool_reserves",
					Help:      "Recorded pool reserves in base units",
				},
				[]string{"pool", "asset"},
			),
			PoolsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "pools_created_total",
					Help:      "Pools created",
				},
			),
		}
	})
	return metrics
}

func (m *Metrics) recordReserves(pool string, assetA, assetB string, reserveA, reserveB uint64) {
	if m == nil {
		return
	}
	m.PoolReserves.WithLabelValues(pool, assetA).Set(float64(reserveA))
	m.PoolReserves.WithLabelValues(pool, assetB).Set(float64(reserveB))
}
