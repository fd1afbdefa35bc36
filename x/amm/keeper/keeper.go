package keeper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/amm/types"
)

// Keeper of the amm store
type Keeper struct {
	storeKey storetypes.StoreKey
	logger   log.Logger
	metrics  *AMMMetrics
}

// NewKeeper creates a new amm Keeper instance. A nil metrics value disables
// registration with any Prometheus registry.
func NewKeeper(key storetypes.StoreKey, logger log.Logger, metrics *AMMMetrics) *Keeper {
	if metrics == nil {
		metrics = NewAMMMetrics(nil)
	}
	return &Keeper{
		storeKey: key,
		logger:   logger.With(log.ModuleKey, "x/"+types.ModuleName),
		metrics:  metrics,
	}
}

// Logger returns the module logger.
func (k Keeper) Logger() log.Logger {
	return k.logger
}

// getStore returns the KVStore for the amm module
func (k Keeper) getStore(ms storetypes.MultiStore) storetypes.KVStore {
	return ms.GetKVStore(k.storeKey)
}

// GetParams returns the stored params, or the defaults when none are set.
func (k Keeper) GetParams(ms storetypes.MultiStore) (types.Params, error) {
	bz := k.getStore(ms).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams(), nil
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.Params{}, fmt.Errorf("GetParams: unmarshal: %w", err)
	}
	return params, nil
}

// SetParams validates and stores params.
func (k Keeper) SetParams(ms storetypes.MultiStore, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("SetParams: marshal: %w", err)
	}
	k.getStore(ms).Set(types.ParamsKey, bz)
	return nil
}

// GetNextPoolID returns the id the next created pool will receive.
func (k Keeper) GetNextPoolID(ms storetypes.MultiStore) uint64 {
	bz := k.getStore(ms).Get(types.PoolCountKey)
	if bz == nil {
		return 1
	}
	return binary.BigEndian.Uint64(bz)
}

// SetNextPoolID stores the next pool id.
func (k Keeper) SetNextPoolID(ms storetypes.MultiStore, id uint64) {
	k.getStore(ms).Set(types.PoolCountKey, binary.BigEndian.AppendUint64(nil, id))
}
