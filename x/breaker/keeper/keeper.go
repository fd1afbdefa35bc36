package keeper

import (
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/breaker/types"
	ratelimitkeeper "github.com/paw-chain/dexguard/x/ratelimit/keeper"
)

// Keeper of the breaker store. Limiter state lives in the ratelimit store and
// is reached through limiters.
type Keeper struct {
	storeKey storetypes.StoreKey
	limiters *ratelimitkeeper.Keeper
	logger   log.Logger
	metrics  *BreakerMetrics
}

// NewKeeper creates a new breaker Keeper instance
func NewKeeper(key storetypes.StoreKey, limiters *ratelimitkeeper.Keeper, logger log.Logger, metrics *BreakerMetrics) *Keeper {
	if metrics == nil {
		metrics = NewBreakerMetrics(nil)
	}
	return &Keeper{
		storeKey: key,
		limiters: limiters,
		logger:   logger.With(log.ModuleKey, "x/"+types.ModuleName),
		metrics:  metrics,
	}
}

// Logger returns the module logger.
func (k Keeper) Logger() log.Logger {
	return k.logger
}

// Limiters returns the rate limit keeper backing the breaker.
func (k Keeper) Limiters() *ratelimitkeeper.Keeper {
	return k.limiters
}

func (k Keeper) getStore(ms storetypes.MultiStore) storetypes.KVStore {
	return ms.GetKVStore(k.storeKey)
}

// GetOperational returns the global kill switch. A fresh store is operational.
func (k Keeper) GetOperational(ms storetypes.MultiStore) bool {
	bz := k.getStore(ms).Get(types.OperationalKey)
	return bz == nil || bz[0] == 1
}

// SetOperational stores the global kill switch.
func (k Keeper) SetOperational(ms storetypes.MultiStore, operational bool) {
	value := byte(0)
	if operational {
		value = 1
	}
	k.getStore(ms).Set(types.OperationalKey, []byte{value})
	k.metrics.onCommit(func() { k.metrics.setOperational(operational) })
}

// GetGracePeriodEnd returns the stored grace period end, if one is set.
// The grace period may already have elapsed.
func (k Keeper) GetGracePeriodEnd(ms storetypes.MultiStore) (time.Time, bool) {
	bz := k.getStore(ms).Get(types.GracePeriodKey)
	if bz == nil {
		return time.Time{}, false
	}
	var end time.Time
	if err := end.UnmarshalBinary(bz); err != nil {
		k.logger.Error("corrupt grace period end", "error", err)
		return time.Time{}, false
	}
	return end.UTC(), true
}

// SetGracePeriodEnd stores the grace period end in time's binary encoding,
// which covers the whole time.Time range.
func (k Keeper) SetGracePeriodEnd(ms storetypes.MultiStore, end time.Time) error {
	bz, err := end.UTC().MarshalBinary()
	if err != nil {
		return types.ErrInvalidGracePeriod.Wrapf("end %s: %s", end, err)
	}
	k.getStore(ms).Set(types.GracePeriodKey, bz)
	k.metrics.onCommit(func() { k.metrics.GracePeriodActive.Set(1) })
	return nil
}

// ClearGracePeriod removes the grace period.
func (k Keeper) ClearGracePeriod(ms storetypes.MultiStore) {
	k.getStore(ms).Delete(types.GracePeriodKey)
	k.metrics.onCommit(func() { k.metrics.GracePeriodActive.Set(0) })
}

// IsGracePeriodActive reports whether now falls before the grace period end.
func (k Keeper) IsGracePeriodActive(ms storetypes.MultiStore, now time.Time) (time.Time, bool) {
	end, ok := k.GetGracePeriodEnd(ms)
	if !ok || !now.Before(end) {
		return time.Time{}, false
	}
	return end, true
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
