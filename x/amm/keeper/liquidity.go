package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/amm/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

// GetLiquidity returns the shares a provider holds in a pool.
func (k Keeper) GetLiquidity(ms storetypes.MultiStore, poolID uint64, provider string) (math.Int, error) {
	bz := k.getStore(ms).Get(types.GetLiquidityKey(poolID, provider))
	if bz == nil {
		return math.ZeroInt(), nil
	}
	var shares math.Int
	if err := shares.Unmarshal(bz); err != nil {
		return math.Int{}, fmt.Errorf("GetLiquidity: unmarshal shares of %s in pool %d: %w", provider, poolID, err)
	}
	return shares, nil
}

// SetLiquidity stores a provider's shares; zero deletes the position.
func (k Keeper) SetLiquidity(ms storetypes.MultiStore, poolID uint64, provider string, shares math.Int) error {
	store := k.getStore(ms)
	key := types.GetLiquidityKey(poolID, provider)
	if shares.IsZero() {
		store.Delete(key)
		return nil
	}
	bz, err := shares.Marshal()
	if err != nil {
		return fmt.Errorf("SetLiquidity: marshal: %w", err)
	}
	store.Set(key, bz)
	return nil
}

// IterateLiquidity calls cb for every provider position in a pool.
func (k Keeper) IterateLiquidity(ms storetypes.MultiStore, poolID uint64, cb func(provider string, shares math.Int) (stop bool)) error {
	store := prefix.NewStore(k.getStore(ms), types.GetLiquidityPrefix(poolID))
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var shares math.Int
		if err := shares.Unmarshal(iterator.Value()); err != nil {
			return fmt.Errorf("IterateLiquidity: pool %d: %w", poolID, err)
		}
		if cb(string(iterator.Key()), shares) {
			break
		}
	}
	return nil
}

// CalculateDepositShares returns the shares minted for depositing amountA and
// amountB into a pool with the given state. The first deposit mints
// isqrt(amountA*amountB); later deposits must match the reserve ratio within
// toleranceBps and mint the smaller of the two proportional amounts.
func CalculateDepositShares(amountA, amountB, reserveA, reserveB, totalShares math.Int, toleranceBps uint32) (math.Int, error) {
	if err := requirePositive("amount a", amountA); err != nil {
		return math.ZeroInt(), err
	}
	if err := requirePositive("amount b", amountB); err != nil {
		return math.ZeroInt(), err
	}

	if totalShares.IsZero() {
		shares, err := fixedpoint.SqrtProduct(amountA, amountB)
		if err != nil {
			return math.ZeroInt(), err
		}
		if shares.IsZero() {
			return math.ZeroInt(), types.ErrInvalidAmount.Wrap("initial deposit too small")
		}
		return shares, nil
	}

	if !reserveA.IsPositive() || !reserveB.IsPositive() {
		return math.ZeroInt(), types.ErrInvariantViolation.Wrap("pool has shares but a zero reserve")
	}
	if !fixedpoint.RatioWithinBps(amountA, amountB, reserveA, reserveB, toleranceBps) {
		return math.ZeroInt(), types.ErrImbalancedDeposit.Wrapf("deposit %s:%s deviates from reserves %s:%s by more than %d bps",
			amountA, amountB, reserveA, reserveB, toleranceBps)
	}

	sharesA, err := fixedpoint.MulDiv(amountA, totalShares, reserveA)
	if err != nil {
		return math.ZeroInt(), err
	}
	sharesB, err := fixedpoint.MulDiv(amountB, totalShares, reserveB)
	if err != nil {
		return math.ZeroInt(), err
	}
	shares := math.MinInt(sharesA, sharesB)
	if shares.IsZero() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrap("deposit too small to mint shares")
	}
	return shares, nil
}

// CalculateWithdrawAmounts returns reserveX*shares/totalShares for both reserves.
func CalculateWithdrawAmounts(shares, reserveA, reserveB, totalShares math.Int) (math.Int, math.Int, error) {
	if err := requirePositive("shares", shares); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if shares.GT(totalShares) {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInsufficientShares.Wrapf("shares %s exceed total %s", shares, totalShares)
	}
	amountA, err := fixedpoint.MulDiv(reserveA, shares, totalShares)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	amountB, err := fixedpoint.MulDiv(reserveB, shares, totalShares)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	return amountA, amountB, nil
}

// AddLiquidity deposits both tokens into a pool and credits the minted shares to provider.
func (k Keeper) AddLiquidity(ms storetypes.MultiStore, provider string, poolID uint64, amountA, amountB math.Int) (res types.DepositResult, err error) {
	defer func() {
		k.observeLiquidityOp(poolID, "add", err)
	}()

	pool, err := k.GetPool(ms, poolID)
	if err != nil {
		return types.DepositResult{}, err
	}
	params, err := k.GetParams(ms)
	if err != nil {
		return types.DepositResult{}, err
	}

	shares, err := CalculateDepositShares(amountA, amountB, pool.ReserveA, pool.ReserveB, pool.TotalShares, params.ImbalanceToleranceBps)
	if err != nil {
		return types.DepositResult{}, err
	}

	newReserveA, err := fixedpoint.Add(pool.ReserveA, amountA)
	if err != nil {
		return types.DepositResult{}, err
	}
	newReserveB, err := fixedpoint.Add(pool.ReserveB, amountB)
	if err != nil {
		return types.DepositResult{}, err
	}
	newTotal, err := fixedpoint.Add(pool.TotalShares, shares)
	if err != nil {
		return types.DepositResult{}, err
	}

	held, err := k.GetLiquidity(ms, poolID, provider)
	if err != nil {
		return types.DepositResult{}, err
	}
	newHeld, err := fixedpoint.Add(held, shares)
	if err != nil {
		return types.DepositResult{}, err
	}

	pool.ReserveA, pool.ReserveB, pool.TotalShares = newReserveA, newReserveB, newTotal
	if err := k.SetPool(ms, pool); err != nil {
		return types.DepositResult{}, err
	}
	if err := k.SetLiquidity(ms, poolID, provider, newHeld); err != nil {
		return types.DepositResult{}, err
	}

	k.logger.Debug("liquidity added",
		"pool_id", poolID,
		"provider", provider,
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
		"shares", shares.String(),
	)
	return types.DepositResult{
		PoolId:       poolID,
		AmountA:      amountA,
		AmountB:      amountB,
		SharesMinted: shares,
	}, nil
}

// RemoveLiquidity burns shares held by provider and pays out the proportional
// reserves. Burning the last share resets the pool to empty.
func (k Keeper) RemoveLiquidity(ms storetypes.MultiStore, provider string, poolID uint64, shares, minAmountA, minAmountB math.Int) (res types.WithdrawResult, err error) {
	defer func() {
		k.observeLiquidityOp(poolID, "remove", err)
	}()

	if err := requirePositive("shares", shares); err != nil {
		return types.WithdrawResult{}, err
	}
	pool, err := k.GetPool(ms, poolID)
	if err != nil {
		return types.WithdrawResult{}, err
	}
	held, err := k.GetLiquidity(ms, poolID, provider)
	if err != nil {
		return types.WithdrawResult{}, err
	}
	if shares.GT(held) {
		return types.WithdrawResult{}, types.ErrInsufficientShares.Wrapf("provider %s holds %s shares, requested %s", provider, held, shares)
	}

	amountA, amountB, err := CalculateWithdrawAmounts(shares, pool.ReserveA, pool.ReserveB, pool.TotalShares)
	if err != nil {
		return types.WithdrawResult{}, err
	}
	if amountA.IsZero() && amountB.IsZero() {
		return types.WithdrawResult{}, types.ErrInvalidAmount.Wrapf("withdrawing %s shares returns nothing", shares)
	}
	if !minAmountA.IsNil() && amountA.LT(minAmountA) {
		return types.WithdrawResult{}, types.ErrSlippageExceeded.Wrapf("token a: expected at least %s, got %s", minAmountA, amountA)
	}
	if !minAmountB.IsNil() && amountB.LT(minAmountB) {
		return types.WithdrawResult{}, types.ErrSlippageExceeded.Wrapf("token b: expected at least %s, got %s", minAmountB, amountB)
	}

	newHeld, err := fixedpoint.Sub(held, shares)
	if err != nil {
		return types.WithdrawResult{}, err
	}
	drained := shares.Equal(pool.TotalShares)
	if drained {
		pool.ReserveA, pool.ReserveB, pool.TotalShares = math.ZeroInt(), math.ZeroInt(), math.ZeroInt()
	} else {
		if pool.ReserveA, err = fixedpoint.Sub(pool.ReserveA, amountA); err != nil {
			return types.WithdrawResult{}, err
		}
		if pool.ReserveB, err = fixedpoint.Sub(pool.ReserveB, amountB); err != nil {
			return types.WithdrawResult{}, err
		}
		if pool.TotalShares, err = fixedpoint.Sub(pool.TotalShares, shares); err != nil {
			return types.WithdrawResult{}, err
		}
	}

	if err := k.SetPool(ms, pool); err != nil {
		return types.WithdrawResult{}, err
	}
	if err := k.SetLiquidity(ms, poolID, provider, newHeld); err != nil {
		return types.WithdrawResult{}, err
	}

	k.logger.Debug("liquidity removed",
		"pool_id", poolID,
		"provider", provider,
		"shares", shares.String(),
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
		"drained", drained,
	)
	return types.WithdrawResult{
		PoolId:      poolID,
		Shares:      shares,
		AmountA:     amountA,
		AmountB:     amountB,
		PoolDrained: drained,
	}, nil
}

func (k Keeper) observeLiquidityOp(poolID uint64, op string, err error) {
	k.metrics.observeOutcome(k.metrics.LiquidityOps, err, poolLabel(poolID), op)
}
