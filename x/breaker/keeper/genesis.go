package keeper

import (
	"time"

	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/breaker/types"
	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// InitGenesis loads a validated genesis state, limiters included.
func (k Keeper) InitGenesis(ms storetypes.MultiStore, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ms, gs.Params); err != nil {
		return err
	}
	k.limiters.InitStore(ms)
	k.SetOperational(ms, gs.Operational)
	if gs.GracePeriodEnd != nil {
		if err := k.SetGracePeriodEnd(ms, *gs.GracePeriodEnd); err != nil {
			return err
		}
	} else {
		k.ClearGracePeriod(ms)
	}
	for _, l := range gs.Limiters {
		if err := k.limiters.SetLimiter(ms, l); err != nil {
			return err
		}
	}
	for _, id := range gs.ProtectedContracts {
		k.SetProtected(ms, id, true)
	}
	k.observeProtected(ms)
	return nil
}

// ExportGenesis returns the module state.
func (k Keeper) ExportGenesis(ms storetypes.MultiStore) (*types.GenesisState, error) {
	params, err := k.GetParams(ms)
	if err != nil {
		return nil, err
	}
	gs := &types.GenesisState{
		Params:             params,
		Operational:        k.GetOperational(ms),
		ProtectedContracts: k.ListProtectedContracts(ms),
		Limiters:           []ratelimittypes.Limiter{},
	}
	if end, ok := k.GetGracePeriodEnd(ms); ok {
		gs.GracePeriodEnd = &end
	}
	if err := k.limiters.IterateLimiters(ms, func(l ratelimittypes.Limiter) bool {
		gs.Limiters = append(gs.Limiters, l)
		return false
	}); err != nil {
		return nil, err
	}
	return gs, nil
}

// PruneGracePeriod clears a grace period that ended at or before now.
// It reports whether anything was cleared.
func (k Keeper) PruneGracePeriod(ms storetypes.MultiStore, now time.Time) bool {
	end, ok := k.GetGracePeriodEnd(ms)
	if !ok || now.Before(end) {
		return false
	}
	k.ClearGracePeriod(ms)
	k.logger.Info("grace period elapsed", "end", end)
	return true
}
