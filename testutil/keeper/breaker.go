package keeper

import (
	"testing"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/stretchr/testify/require"

	breakerkeeper "github.com/paw-chain/dexguard/x/breaker/keeper"
	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
	ratelimitkeeper "github.com/paw-chain/dexguard/x/ratelimit/keeper"
	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// TestAdmin is the capability tests use for admin operations.
var TestAdmin = breakertypes.NewAdminCapability("test-admin")

// RateLimitKeeper creates a test keeper for the ratelimit module over a fresh store.
func RateLimitKeeper(t testing.TB) (*ratelimitkeeper.Keeper, storetypes.CommitMultiStore) {
	storeKey := storetypes.NewKVStoreKey(ratelimittypes.StoreKey)
	ms := NewTestMultiStore(t, storeKey)
	return ratelimitkeeper.NewKeeper(storeKey, log.NewNopLogger()), ms
}

// BreakerKeeper creates a breaker keeper and its ratelimit keeper over a fresh store.
func BreakerKeeper(t testing.TB) (*breakerkeeper.Keeper, storetypes.CommitMultiStore) {
	return BreakerKeeperWithMetrics(t, nil)
}

// BreakerKeeperWithMetrics is BreakerKeeper reporting to metrics.
func BreakerKeeperWithMetrics(t testing.TB, metrics *breakerkeeper.BreakerMetrics) (*breakerkeeper.Keeper, storetypes.CommitMultiStore) {
	breakerKey := storetypes.NewKVStoreKey(breakertypes.StoreKey)
	limiterKey := storetypes.NewKVStoreKey(ratelimittypes.StoreKey)
	ms := NewTestMultiStore(t, breakerKey, limiterKey)

	limiters := ratelimitkeeper.NewKeeper(limiterKey, log.NewNopLogger())
	k := breakerkeeper.NewKeeper(breakerKey, limiters, log.NewNopLogger(), metrics)
	require.NoError(t, k.InitGenesis(ms, *breakertypes.DefaultGenesis()))
	k.CommitMetrics()
	return k, ms
}
