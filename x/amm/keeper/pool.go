package keeper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/amm/types"
)

// CreatePool registers a new pool for the token pair and seeds it with the
// creator's initial deposit. A zero feeBps falls back to the params default.
func (k Keeper) CreatePool(ms storetypes.MultiStore, creator, tokenA, tokenB string, amountA, amountB math.Int, feeBps uint32) (types.Pool, types.DepositResult, error) {
	if err := types.ValidateTokenPair(tokenA, tokenB); err != nil {
		return types.Pool{}, types.DepositResult{}, err
	}
	if creator == "" {
		return types.Pool{}, types.DepositResult{}, types.ErrInvalidAmount.Wrap("creator cannot be empty")
	}
	if err := requirePositive("initial amount a", amountA); err != nil {
		return types.Pool{}, types.DepositResult{}, err
	}
	if err := requirePositive("initial amount b", amountB); err != nil {
		return types.Pool{}, types.DepositResult{}, err
	}

	if existing, found := k.GetPoolByTokens(ms, tokenA, tokenB); found {
		return types.Pool{}, types.DepositResult{}, types.ErrPoolAlreadyExists.Wrapf("pool %d already exists for %s/%s", existing.Id, tokenA, tokenB)
	}

	params, err := k.GetParams(ms)
	if err != nil {
		return types.Pool{}, types.DepositResult{}, err
	}
	if feeBps == 0 {
		feeBps = params.DefaultFeeBps
	}
	if err := types.ValidateFeeBps(feeBps); err != nil {
		return types.Pool{}, types.DepositResult{}, err
	}

	id := k.GetNextPoolID(ms)
	pool := types.NewPool(id, tokenA, tokenB, feeBps, creator)
	if err := k.SetPool(ms, pool); err != nil {
		return types.Pool{}, types.DepositResult{}, fmt.Errorf("CreatePool: %w", err)
	}
	k.setPoolByTokens(ms, tokenA, tokenB, id)
	k.SetNextPoolID(ms, id+1)

	res, err := k.AddLiquidity(ms, creator, id, amountA, amountB)
	if err != nil {
		return types.Pool{}, types.DepositResult{}, err
	}
	pool, err = k.GetPool(ms, id)
	if err != nil {
		return types.Pool{}, types.DepositResult{}, err
	}

	k.metrics.onCommit(k.metrics.PoolsTotal.Inc)
	k.logger.Info("pool created",
		"pool_id", id,
		"token_a", tokenA,
		"token_b", tokenB,
		"fee_bps", feeBps,
		"shares", res.SharesMinted.String(),
	)
	return pool, res, nil
}

// GetPool returns a pool by id.
func (k Keeper) GetPool(ms storetypes.MultiStore, poolID uint64) (types.Pool, error) {
	bz := k.getStore(ms).Get(types.GetPoolKey(poolID))
	if bz == nil {
		return types.Pool{}, types.ErrPoolNotFound.Wrapf("pool %d not found", poolID)
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return types.Pool{}, fmt.Errorf("GetPool: unmarshal pool %d: %w", poolID, err)
	}
	return pool, nil
}

// SetPool stores a pool.
func (k Keeper) SetPool(ms storetypes.MultiStore, pool types.Pool) error {
	bz, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("SetPool: marshal pool %d: %w", pool.Id, err)
	}
	k.getStore(ms).Set(types.GetPoolKey(pool.Id), bz)
	k.metrics.onCommit(func() { k.metrics.observePool(pool) })
	return nil
}

// GetPoolByTokens looks a pool up by its token pair in either order.
func (k Keeper) GetPoolByTokens(ms storetypes.MultiStore, tokenA, tokenB string) (types.Pool, bool) {
	bz := k.getStore(ms).Get(types.GetPoolByTokensKey(tokenA, tokenB))
	if bz == nil {
		return types.Pool{}, false
	}
	pool, err := k.GetPool(ms, binary.BigEndian.Uint64(bz))
	if err != nil {
		return types.Pool{}, false
	}
	return pool, true
}

func (k Keeper) setPoolByTokens(ms storetypes.MultiStore, tokenA, tokenB string, poolID uint64) {
	k.getStore(ms).Set(types.GetPoolByTokensKey(tokenA, tokenB), binary.BigEndian.AppendUint64(nil, poolID))
}

// IteratePools calls cb for every pool in id order until cb returns true.
func (k Keeper) IteratePools(ms storetypes.MultiStore, cb func(pool types.Pool) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ms), types.PoolKey)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			return fmt.Errorf("IteratePools: unmarshal: %w", err)
		}
		if cb(pool) {
			break
		}
	}
	return nil
}

// GetAllPools returns every pool.
func (k Keeper) GetAllPools(ms storetypes.MultiStore) ([]types.Pool, error) {
	pools := []types.Pool{}
	err := k.IteratePools(ms, func(pool types.Pool) bool {
		pools = append(pools, pool)
		return false
	})
	return pools, err
}
