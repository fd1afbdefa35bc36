package keeper

import (
	"errors"
	"time"

	storetypes "cosmossdk.io/store/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/paw-chain/dexguard/x/breaker/types"
	"github.com/paw-chain/dexguard/x/shared/telemetry"
)

// BreakerMetrics holds all Prometheus metrics for the breaker module
type BreakerMetrics struct {
	GuardDecisions     *prometheus.CounterVec
	LimiterTriggers    *prometheus.CounterVec
	Overrides          *prometheus.CounterVec
	Operational        prometheus.Gauge
	GracePeriodActive  prometheus.Gauge
	ProtectedContracts prometheus.Gauge

	// updates for writes in the open store branch
	pending telemetry.Pending
}

// NewBreakerMetrics builds the breaker metrics and registers them with reg.
// A nil registerer builds unregistered collectors.
func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	factory := promauto.With(reg)
	m := &BreakerMetrics{
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dexguard",
				Subsystem: "breaker",
				Name:      "guard_decisions_total",
				Help:      "Guard decisions by operation and outcome, counted whether or not the operation commits",
			},
			[]string{"operation", "outcome"},
		),
		LimiterTriggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dexguard",
				Subsystem: "breaker",
				Name:      "limiter_triggers_total",
				Help:      "Rate limiter Normal to Triggered transitions",
			},
			[]string{"operation"},
		),
		Overrides: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dexguard",
				Subsystem: "breaker",
				Name:      "overrides_total",
				Help:      "Rate limit overrides applied and revoked",
			},
			[]string{"action"},
		),
		Operational: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "dexguard",
				Subsystem: "breaker",
				Name:      "operational",
				Help:      "1 when the breaker is operational, 0 when paused",
			},
		),
		GracePeriodActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "dexguard",
				Subsystem: "breaker",
				Name:      "grace_period_active",
				Help:      "1 while a grace period is scheduled",
			},
		),
		ProtectedContracts: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "dexguard",
				Subsystem: "breaker",
				Name:      "protected_contracts",
				Help:      "Number of protected identifiers",
			},
		),
	}
	m.Operational.Set(1)
	return m
}

// onCommit queues update until the store branch it describes is committed.
func (m *BreakerMetrics) onCommit(update func()) {
	m.pending.Add(update)
}

func (m *BreakerMetrics) setOperational(operational bool) {
	if operational {
		m.Operational.Set(1)
		return
	}
	m.Operational.Set(0)
}

func (m *BreakerMetrics) observeGuard(kind types.OperationKind, err error) {
	outcome := "allowed"
	switch {
	case err == nil:
	case errors.Is(err, types.ErrCircuitBreakerPaused):
		outcome = "paused"
	case errors.Is(err, types.ErrGracePeriodActive):
		outcome = "grace_period"
	case errors.Is(err, types.ErrRateLimited):
		outcome = "rate_limited"
	default:
		outcome = "error"
	}
	m.GuardDecisions.WithLabelValues(kind.String(), outcome).Inc()
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

// RefreshMetrics sets the breaker gauges from stored state.
func (k Keeper) RefreshMetrics(ms storetypes.MultiStore, now time.Time) {
	k.metrics.setOperational(k.GetOperational(ms))
	if _, active := k.IsGracePeriodActive(ms, now); active {
		k.metrics.GracePeriodActive.Set(1)
	} else {
		k.metrics.GracePeriodActive.Set(0)
	}
	k.metrics.ProtectedContracts.Set(float64(len(k.ListProtectedContracts(ms))))
}
