package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/amm/types"
)

// Invariant checks a property of the stored state. It returns a message and
// whether the invariant is broken.
type Invariant func(ms storetypes.MultiStore) (string, bool)

// FormatInvariant renders an invariant result.
func FormatInvariant(module, name, msg string) string {
	return fmt.Sprintf("%s: %s invariant\n%s\n", module, name, msg)
}

// AllInvariants runs all invariants of the AMM module
func AllInvariants(k Keeper) Invariant {
	return func(ms storetypes.MultiStore) (string, bool) {
		res, stop := PoolSharesInvariant(k)(ms)
		if stop {
			return res, stop
		}
		return PositiveReservesInvariant(k)(ms)
	}
}

// PoolSharesInvariant checks that each pool's total shares equal the sum of its positions
func PoolSharesInvariant(k Keeper) Invariant {
	return func(ms storetypes.MultiStore) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ms)
		if err != nil {
			return FormatInvariant(types.ModuleName, "pool-shares", err.Error()), true
		}
		for _, pool := range pools {
			sum := math.ZeroInt()
			if err := k.IterateLiquidity(ms, pool.Id, func(_ string, shares math.Int) bool {
				sum = sum.Add(shares)
				return false
			}); err != nil {
				return FormatInvariant(types.ModuleName, "pool-shares", err.Error()), true
			}
			if !sum.Equal(pool.TotalShares) {
				count++
				msg += fmt.Sprintf("pool %d: total shares %s != sum of positions %s\n", pool.Id, pool.TotalShares, sum)
			}
		}

		broken := count != 0
		return FormatInvariant(types.ModuleName, "pool-shares",
			fmt.Sprintf("found %d pools with mismatched shares\n%s", count, msg)), broken
	}
}

// PositiveReservesInvariant checks that every pool is either empty or fully funded
func PositiveReservesInvariant(k Keeper) Invariant {
	return func(ms storetypes.MultiStore) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ms)
		if err != nil {
			return FormatInvariant(types.ModuleName, "positive-reserves", err.Error()), true
		}
		for _, pool := range pools {
			if err := pool.Validate(); err != nil {
				count++
				msg += fmt.Sprintf("pool %d: %s\n", pool.Id, err)
			}
		}

		broken := count != 0
		return FormatInvariant(types.ModuleName, "positive-reserves",
			fmt.Sprintf("found %d malformed pools\n%s", count, msg)), broken
	}
}
