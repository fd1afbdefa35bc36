package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// GenesisState is the exported AMM state.
type GenesisState struct {
	Params     Params              `json:"params"`
	Pools      []Pool              `json:"pools"`
	Positions  []LiquidityPosition `json:"positions"`
	NextPoolId uint64              `json:"next_pool_id"`
}

// DefaultGenesis returns the default genesis state for the AMM module.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:     DefaultParams(),
		Pools:      []Pool{},
		Positions:  []LiquidityPosition{},
		NextPoolId: 1,
	}
}

// Validate ensures the genesis state is well-formed.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}
	if gs.NextPoolId == 0 {
		return ErrInvalidGenesis.Wrap("next pool id must be positive")
	}

	pools := make(map[uint64]Pool, len(gs.Pools))
	pairs := make(map[string]uint64, len(gs.Pools))
	for _, p := range gs.Pools {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := pools[p.Id]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate pool id %d", p.Id)
		}
		if p.Id >= gs.NextPoolId {
			return ErrInvalidGenesis.Wrapf("pool id %d is not below next pool id %d", p.Id, gs.NextPoolId)
		}
		a, b := SortTokens(p.TokenA, p.TokenB)
		pair := fmt.Sprintf("%s/%s", a, b)
		if other, dup := pairs[pair]; dup {
			return ErrInvalidGenesis.Wrapf("pools %d and %d share pair %s", other, p.Id, pair)
		}
		pools[p.Id] = p
		pairs[pair] = p.Id
	}

	shares := make(map[uint64]math.Int, len(gs.Pools))
	seen := make(map[string]struct{}, len(gs.Positions))
	for _, pos := range gs.Positions {
		if _, ok := pools[pos.PoolId]; !ok {
			return ErrInvalidGenesis.Wrapf("position for unknown pool %d", pos.PoolId)
		}
		if pos.Provider == "" {
			return ErrInvalidGenesis.Wrapf("position in pool %d has no provider", pos.PoolId)
		}
		if pos.Shares.IsNil() || !pos.Shares.IsPositive() {
			return ErrInvalidGenesis.Wrapf("position %s in pool %d must hold positive shares", pos.Provider, pos.PoolId)
		}
		key := fmt.Sprintf("%d/%s", pos.PoolId, pos.Provider)
		if _, dup := seen[key]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate position %s", key)
		}
		seen[key] = struct{}{}

		sum, ok := shares[pos.PoolId]
		if !ok {
			sum = math.ZeroInt()
		}
		shares[pos.PoolId] = sum.Add(pos.Shares)
	}

	for id, p := range pools {
		sum, ok := shares[id]
		if !ok {
			sum = math.ZeroInt()
		}
		if !sum.Equal(p.TotalShares) {
			return ErrInvalidGenesis.Wrapf("pool %d total shares %s != sum of positions %s", id, p.TotalShares, sum)
		}
	}
	return nil
}
