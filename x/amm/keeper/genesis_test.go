package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/dexguard/testutil/keeper"
	"github.com/paw-chain/dexguard/x/amm/keeper"
	"github.com/paw-chain/dexguard/x/amm/types"
)

func TestGenesisRoundTrip(t *testing.T) {
	k, ms := keepertest.AMMKeeper(t)
	poolID := keepertest.CreateTestPool(t, k, ms, "tokenA", "tokenB", 100, 1000)
	_, err := k.AddLiquidity(ms, "lp", poolID, keepertest.Units(10), keepertest.Units(100))
	require.NoError(t, err)
	_, err = k.Swap(ms, "trader", poolID, "tokenA", "tokenB", keepertest.Units(1), math.ZeroInt())
	require.NoError(t, err)

	exported, err := k.ExportGenesis(ms)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Pools, 1)
	require.Len(t, exported.Positions, 2)
	require.Equal(t, uint64(2), exported.NextPoolId)

	k2, ms2 := keepertest.AMMKeeper(t)
	require.NoError(t, k2.InitGenesis(ms2, *exported))

	reimported, err := k2.ExportGenesis(ms2)
	require.NoError(t, err)
	require.Equal(t, exported, reimported)

	pool, found := k2.GetPoolByTokens(ms2, "tokenB", "tokenA")
	require.True(t, found)
	require.Equal(t, poolID, pool.Id)
}

func TestGenesisValidate(t *testing.T) {
	pool := types.NewPool(1, "tokenA", "tokenB", 30, "creator")
	pool.ReserveA, pool.ReserveB, pool.TotalShares = math.NewInt(100), math.NewInt(100), math.NewInt(100)

	tests := []struct {
		name   string
		mutate func(gs *types.GenesisState)
	}{
		{"zero next id", func(gs *types.GenesisState) { gs.NextPoolId = 0 }},
		{"pool id not below next id", func(gs *types.GenesisState) { gs.NextPoolId = 1 }},
		{"duplicate pair", func(gs *types.GenesisState) {
			dup := pool
			dup.Id = 2
			dup.TokenA, dup.TokenB = "tokenB", "tokenA"
			gs.Pools = append(gs.Pools, dup)
			gs.NextPoolId = 3
		}},
		{"shares mismatch", func(gs *types.GenesisState) { gs.Positions[0].Shares = math.NewInt(99) }},
		{"unknown pool position", func(gs *types.GenesisState) { gs.Positions[0].PoolId = 7 }},
		{"shares without reserves", func(gs *types.GenesisState) { gs.Pools[0].ReserveA = math.ZeroInt() }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := types.GenesisState{
				Params:     types.DefaultParams(),
				Pools:      []types.Pool{pool},
				Positions:  []types.LiquidityPosition{{PoolId: 1, Provider: "creator", Shares: math.NewInt(100)}},
				NextPoolId: 2,
			}
			require.NoError(t, gs.Validate())
			tc.mutate(&gs)
			require.Error(t, gs.Validate())
		})
	}
}

func TestInvariants(t *testing.T) {
	k, ms := keepertest.AMMKeeper(t)
	poolID := keepertest.CreateTestPool(t, k, ms, "tokenA", "tokenB", 100, 1000)
	_, err := k.AddLiquidity(ms, "lp", poolID, keepertest.Units(10), keepertest.Units(100))
	require.NoError(t, err)

	msg, broken := keeper.AllInvariants(*k)(ms)
	require.False(t, broken, msg)

	require.NoError(t, k.SetLiquidity(ms, poolID, "ghost", math.NewInt(1)))
	msg, broken = keeper.PoolSharesInvariant(*k)(ms)
	require.True(t, broken)
	require.Contains(t, msg, "pool-shares")
}
