package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/amm/types"
)

// InitGenesis loads a validated genesis state into the store.
func (k Keeper) InitGenesis(ms storetypes.MultiStore, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ms, gs.Params); err != nil {
		return err
	}
	for _, pool := range gs.Pools {
		if err := k.SetPool(ms, pool); err != nil {
			return fmt.Errorf("InitGenesis: %w", err)
		}
		k.setPoolByTokens(ms, pool.TokenA, pool.TokenB, pool.Id)
	}
	for _, pos := range gs.Positions {
		if err := k.SetLiquidity(ms, pos.PoolId, pos.Provider, pos.Shares); err != nil {
			return fmt.Errorf("InitGenesis: %w", err)
		}
	}
	k.SetNextPoolID(ms, gs.NextPoolId)
	pools := float64(len(gs.Pools))
	k.metrics.onCommit(func() { k.metrics.PoolsTotal.Set(pools) })
	return nil
}

// ExportGenesis returns the module state.
func (k Keeper) ExportGenesis(ms storetypes.MultiStore) (*types.GenesisState, error) {
	params, err := k.GetParams(ms)
	if err != nil {
		return nil, err
	}
	pools, err := k.GetAllPools(ms)
	if err != nil {
		return nil, err
	}
	positions := []types.LiquidityPosition{}
	for _, pool := range pools {
		if err := k.IterateLiquidity(ms, pool.Id, func(provider string, shares math.Int) bool {
			positions = append(positions, types.LiquidityPosition{PoolId: pool.Id, Provider: provider, Shares: shares})
			return false
		}); err != nil {
			return nil, err
		}
	}
	return &types.GenesisState{
		Params:     params,
		Pools:      pools,
		Positions:  positions,
		NextPoolId: k.GetNextPoolID(ms),
	}, nil
}
