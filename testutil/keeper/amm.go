package keeper

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dexguard/x/amm/keeper"
	"github.com/paw-chain/dexguard/x/amm/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

// AMMKeeper creates a test keeper for the AMM module over a fresh store.
func AMMKeeper(t testing.TB) (*keeper.Keeper, storetypes.CommitMultiStore) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	ms := NewTestMultiStore(t, storeKey)

	k := keeper.NewKeeper(storeKey, log.NewNopLogger(), nil)
	require.NoError(t, k.InitGenesis(ms, *types.DefaultGenesis()))
	return k, ms
}

// CreateTestPool creates a pool seeded with whole-token amounts and returns its id.
func CreateTestPool(t testing.TB, k *keeper.Keeper, ms storetypes.MultiStore, tokenA, tokenB string, amountA, amountB int64) uint64 {
	pool, _, err := k.CreatePool(ms, "creator", tokenA, tokenB, fixedpoint.FromUnits(amountA), fixedpoint.FromUnits(amountB), 0)
	require.NoError(t, err)
	return pool.Id
}

// Units is fixedpoint.FromUnits for table tests.
func Units(n int64) math.Int {
	return fixedpoint.FromUnits(n)
}
