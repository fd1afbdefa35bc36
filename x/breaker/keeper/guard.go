package keeper

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/breaker/types"
)

// Guard is the gate every pool-mutating call passes before it runs. Checks
// run in order: kill switch, grace period, protected membership, rate limit.
// When the call is allowed and identifier is protected, delta is recorded
// against its limiter before Guard returns.
//
// Guard and the mutation it protects must run in the same store branch so a
// failed mutation also discards the recorded delta.
func (k Keeper) Guard(ms storetypes.MultiStore, kind types.OperationKind, identifier string, delta math.Int, now time.Time) (err error) {
	defer func() {
		k.metrics.observeGuard(kind, err)
	}()

	if err := kind.Validate(); err != nil {
		return err
	}

	if !k.GetOperational(ms) {
		k.logger.Debug("guard rejected: paused", "operation", kind.String(), "identifier", identifier)
		return types.ErrCircuitBreakerPaused.Wrapf("%s rejected", kind)
	}

	if end, active := k.IsGracePeriodActive(ms, now); active && kind != types.OperationWithdraw {
		k.logger.Debug("guard rejected: grace period", "operation", kind.String(), "identifier", identifier, "until", end)
		return &types.RetryableError{
			Err:        types.ErrGracePeriodActive.Wrapf("%s rejected", kind),
			Identifier: identifier,
			RetryAt:    end,
		}
	}

	if !k.IsProtected(ms, identifier) {
		return nil
	}

	limited, retryAt, err := k.limiters.IsLimited(ms, identifier, now)
	if err != nil {
		return err
	}
	if limited {
		k.logger.Debug("guard rejected: rate limited", "operation", kind.String(), "identifier", identifier, "until", retryAt)
		return &types.RetryableError{
			Err:        types.ErrRateLimited.Wrapf("%s rejected", kind),
			Identifier: identifier,
			RetryAt:    retryAt,
		}
	}

	triggered, err := k.limiters.RecordDelta(ms, identifier, delta, now)
	if err != nil {
		return fmt.Errorf("Guard: %w", err)
	}
	if triggered {
		k.metrics.onCommit(func() { k.metrics.LimiterTriggers.WithLabelValues(kind.String()).Inc() })
	}
	return nil
}

// Status returns a snapshot of the breaker and every protected limiter at now.
func (k Keeper) Status(ms storetypes.MultiStore, now time.Time) (types.Status, error) {
	status := types.Status{
		Operational: k.GetOperational(ms),
		CheckedAt:   now,
	}
	if end, ok := k.GetGracePeriodEnd(ms); ok {
		status.GracePeriodEnd = &end
		status.GracePeriodActive = now.Before(end)
	}
	for _, id := range k.ListProtectedContracts(ms) {
		s, err := k.limiters.Status(ms, id, now)
		if err != nil {
			return types.Status{}, err
		}
		status.Protected = append(status.Protected, s)
	}
	return status, nil
}
