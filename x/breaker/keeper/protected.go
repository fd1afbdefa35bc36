package keeper

import (
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/breaker/types"
)

// IsProtected reports whether identifier's activity is rate limited.
func (k Keeper) IsProtected(ms storetypes.MultiStore, identifier string) bool {
	return k.getStore(ms).Has(types.GetProtectedKey(identifier))
}

// SetProtected adds or removes identifier from the protected set.
func (k Keeper) SetProtected(ms storetypes.MultiStore, identifier string, protected bool) {
	if protected {
		k.getStore(ms).Set(types.GetProtectedKey(identifier), []byte{1})
		return
	}
	k.getStore(ms).Delete(types.GetProtectedKey(identifier))
}

// ListProtectedContracts returns the protected identifiers in key order.
func (k Keeper) ListProtectedContracts(ms storetypes.MultiStore) []string {
	iterator := prefix.NewStore(k.getStore(ms), types.ProtectedKey).Iterator(nil, nil)
	defer iterator.Close()

	ids := []string{}
	for ; iterator.Valid(); iterator.Next() {
		ids = append(ids, string(iterator.Key()))
	}
	return ids
}

func (k Keeper) observeProtected(ms storetypes.MultiStore) {
	count := float64(len(k.ListProtectedContracts(ms)))
	k.metrics.onCommit(func() { k.metrics.ProtectedContracts.Set(count) })
}
