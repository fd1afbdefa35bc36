package keeper

import (
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/amm/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

var bpsDenominator = math.NewInt(fixedpoint.BpsDenominator)

func requirePositive(name string, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount.Wrapf("%s must be positive", name)
	}
	return nil
}

// CalculateSwapOutput applies the constant-product formula with the fee taken
// from the input:
//
//	amountOut = floor(amountIn*(10000-feeBps)*reserveOut / (reserveIn*10000 + amountIn*(10000-feeBps)))
//
// The result is always strictly below reserveOut.
func CalculateSwapOutput(amountIn, reserveIn, reserveOut math.Int, feeBps uint32) (math.Int, error) {
	if err := requirePositive("swap amount", amountIn); err != nil {
		return math.ZeroInt(), err
	}
	if err := types.ValidateFeeBps(feeBps); err != nil {
		return math.ZeroInt(), err
	}
	if reserveIn.IsNil() || reserveOut.IsNil() || reserveIn.IsNegative() || !reserveOut.IsPositive() {
		return math.ZeroInt(), types.ErrInsufficientLiquidity.Wrapf("reserves %s/%s cannot fill a swap", reserveIn, reserveOut)
	}

	inWithFee, err := fixedpoint.Mul(amountIn, math.NewInt(int64(fixedpoint.BpsDenominator-feeBps)))
	if err != nil {
		return math.ZeroInt(), err
	}
	scaledReserveIn, err := fixedpoint.Mul(reserveIn, bpsDenominator)
	if err != nil {
		return math.ZeroInt(), err
	}
	denominator, err := fixedpoint.Add(scaledReserveIn, inWithFee)
	if err != nil {
		return math.ZeroInt(), err
	}
	amountOut, err := fixedpoint.MulDiv(inWithFee, reserveOut, denominator)
	if err != nil {
		return math.ZeroInt(), err
	}

	if amountOut.GTE(reserveOut) {
		return math.ZeroInt(), types.ErrInsufficientLiquidity.Wrapf("output %s would drain reserve %s", amountOut, reserveOut)
	}
	if amountOut.IsZero() {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrapf("swap amount %s too small: output rounds to zero", amountIn)
	}
	return amountOut, nil
}

// Swap executes a swap of amountIn tokenIn for tokenOut against the pool.
// The whole amountIn, fee included, is added to the input reserve.
func (k Keeper) Swap(ms storetypes.MultiStore, trader string, poolID uint64, tokenIn, tokenOut string, amountIn, minAmountOut math.Int) (res types.SwapResult, err error) {
	defer func() {
		k.metrics.observeOutcome(k.metrics.SwapsTotal, err, poolLabel(poolID))
	}()

	pool, err := k.GetPool(ms, poolID)
	if err != nil {
		return types.SwapResult{}, err
	}
	if pool.IsEmpty() {
		return types.SwapResult{}, types.ErrInsufficientLiquidity.Wrapf("pool %d is empty", poolID)
	}

	reserveIn, reserveOut, aIn, err := pool.Orient(tokenIn, tokenOut)
	if err != nil {
		return types.SwapResult{}, err
	}

	amountOut, err := CalculateSwapOutput(amountIn, reserveIn, reserveOut, pool.FeeBps)
	if err != nil {
		return types.SwapResult{}, err
	}
	if !minAmountOut.IsNil() && amountOut.LT(minAmountOut) {
		return types.SwapResult{}, types.ErrSlippageExceeded.Wrapf("expected at least %s, got %s", minAmountOut, amountOut)
	}

	fee, err := fixedpoint.ApplyBps(amountIn, pool.FeeBps)
	if err != nil {
		return types.SwapResult{}, err
	}

	newReserveIn, err := fixedpoint.Add(reserveIn, amountIn)
	if err != nil {
		return types.SwapResult{}, err
	}
	newReserveOut, err := fixedpoint.Sub(reserveOut, amountOut)
	if err != nil {
		return types.SwapResult{}, err
	}

	if fixedpoint.CmpProduct(newReserveIn, newReserveOut, reserveIn, reserveOut) < 0 {
		k.logger.Error("constant product decreased",
			"pool_id", poolID,
			"reserve_in", reserveIn.String(),
			"reserve_out", reserveOut.String(),
			"amount_in", amountIn.String(),
			"amount_out", amountOut.String(),
		)
		return types.SwapResult{}, types.ErrInvariantViolation.Wrapf("pool %d: k decreased", poolID)
	}

	if aIn {
		pool.ReserveA, pool.ReserveB = newReserveIn, newReserveOut
	} else {
		pool.ReserveB, pool.ReserveA = newReserveIn, newReserveOut
	}
	if err := k.SetPool(ms, pool); err != nil {
		return types.SwapResult{}, err
	}

	k.metrics.onCommit(func() {
		k.metrics.SwapVolume.WithLabelValues(poolLabel(poolID), tokenIn).Add(tokens(amountIn))
		k.metrics.SwapFeesCollected.WithLabelValues(poolLabel(poolID), tokenIn).Add(tokens(fee))
	})
	k.logger.Debug("swap executed",
		"pool_id", poolID,
		"trader", trader,
		"token_in", tokenIn,
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
	)

	return types.SwapResult{
		PoolId:    poolID,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Fee:       fee,
	}, nil
}
