package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/paw-chain/dexguard/x/amm/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
	"github.com/paw-chain/dexguard/x/shared/telemetry"
)

// AMMMetrics holds all Prometheus metrics for the AMM module
type AMMMetrics struct {
	// Swap metrics
	SwapsTotal        *prometheus.CounterVec
	SwapVolume        *prometheus.CounterVec
	SwapFeesCollected *prometheus.CounterVec

	// Liquidity metrics
	LiquidityOps  *prometheus.CounterVec
	PoolReserves  *prometheus.GaugeVec
	LPTokenSupply *prometheus.GaugeVec

	// Pool metrics
	PoolsTotal prometheus.Gauge

	// updates for writes in the open store branch
	pending telemetry.Pending
}

// NewAMMMetrics builds the AMM metrics and registers them with reg.
// A nil registerer builds unregistered collectors.
func NewAMMMetrics(reg prometheus.Registerer) *AMMMetrics {
	factory := promauto.With(reg)
	return &AMMMetrics{
		SwapsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dexguard",
				Subsystem: "amm",
				Name:      "swaps_total",
				Help:      "Total number of swaps executed",
			},
			[]string{"pool_id", "status"},
		),
		SwapVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dexguard",
				Subsystem: "amm",
				Name:      "swap_volume_total",
				Help:      "Total swap input volume in whole tokens",
			},
			[]string{"pool_id", "token_in"},
		),
		SwapFeesCollected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dexguard",
				Subsystem: "amm",
				Name:      "swap_fees_total",
				Help:      "Total swap fees retained by pools in whole tokens",
			},
			[]string{"pool_id", "token"},
		),
		LiquidityOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dexguard",
				Subsystem: "amm",
				Name:      "liquidity_ops_total",
				Help:      "Total liquidity additions and removals",
			},
			[]string{"pool_id", "op", "status"},
		),
		PoolReserves: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "dexguard",
				Subsystem: "amm",
				Name:      "pool_reserves",
				Help:      "Current pool reserves in whole tokens",
			},
			[]string{"pool_id", "token"},
		),
		LPTokenSupply: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "dexguard",
				Subsystem: "amm",
				Name:      "lp_token_supply",
				Help:      "Outstanding liquidity shares",
			},
			[]string{"pool_id"},
		),
		PoolsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "dexguard",
				Subsystem: "amm",
				Name:      "pools_total",
				Help:      "Number of pools",
			},
		),
	}
}

func poolLabel(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// tokens converts fixed-point units to a float for gauges; precision loss is acceptable there.
func tokens(a math.Int) float64 {
	f, err := fixedpoint.ToDec(a).Float64()
	if err != nil {
		return 0
	}
	return f
}

// onCommit queues update until the store branch it describes is committed.
func (m *AMMMetrics) onCommit(update func()) {
	m.pending.Add(update)
}

// observeOutcome counts a failed operation at once, since a failure leaves no
// write behind, and a successful one on commit.
func (m *AMMMetrics) observeOutcome(counter *prometheus.CounterVec, err error, labels ...string) {
	if err != nil {
		counter.WithLabelValues(append(labels, "failed")...).Inc()
		return
	}
	m.onCommit(func() { counter.WithLabelValues(append(labels, "success")...).Inc() })
}

func (m *AMMMetrics) observePool(pool types.Pool) {
	id := poolLabel(pool.Id)
	m.PoolReserves.WithLabelValues(id, pool.TokenA).Set(tokens(pool.ReserveA))
	m.PoolReserves.WithLabelValues(id, pool.TokenB).Set(tokens(pool.ReserveB))
	m.LPTokenSupply.WithLabelValues(id).Set(tokens(pool.TotalShares))
}

// CommitMetrics applies the metric updates queued by writes that were just
// committed.
func (k Keeper) CommitMetrics() {
	k.metrics.pending.Commit()
}

// DiscardMetrics drops the metric updates queued by writes that were rolled back.
func (k Keeper) DiscardMetrics() {
	k.metrics.pending.Discard()
}

// RefreshMetrics sets the pool gauges from stored state. Used after loading
// a store that this process did not write.
func (k Keeper) RefreshMetrics(ms storetypes.MultiStore) error {
	count := 0
	err := k.IteratePools(ms, func(pool types.Pool) bool {
		k.metrics.observePool(pool)
		count++
		return false
	})
	if err != nil {
		return err
	}
	k.metrics.PoolsTotal.Set(float64(count))
	return nil
}
