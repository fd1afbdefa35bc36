package keeper

import (
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/amm/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

// SpotPrice returns reserveOut/reserveIn with 18 decimals of precision.
func SpotPrice(reserveIn, reserveOut math.Int) (math.LegacyDec, error) {
	if reserveIn.IsNil() || !reserveIn.IsPositive() {
		return math.LegacyZeroDec(), types.ErrInsufficientLiquidity.Wrap("input reserve is empty")
	}
	price, err := fixedpoint.MulDiv(reserveOut, fixedpoint.One, reserveIn)
	if err != nil {
		return math.LegacyZeroDec(), err
	}
	return fixedpoint.ToDec(price), nil
}

// ExecutionPrice returns amountOut/amountIn with 18 decimals of precision.
func ExecutionPrice(amountIn, amountOut math.Int) (math.LegacyDec, error) {
	return SpotPrice(amountIn, amountOut)
}

// PriceImpact returns (spot - execution)/spot, floored at zero.
func PriceImpact(spot, execution math.LegacyDec) math.LegacyDec {
	if !spot.IsPositive() || execution.GTE(spot) {
		return math.LegacyZeroDec()
	}
	diff := fixedpoint.MustFromDec(spot.Sub(execution))
	impact, err := fixedpoint.MulDiv(diff, fixedpoint.One, fixedpoint.MustFromDec(spot))
	if err != nil {
		return math.LegacyZeroDec()
	}
	return fixedpoint.ToDec(impact)
}

// GetSpotPrice returns the current price of tokenIn in units of tokenOut.
func (k Keeper) GetSpotPrice(ms storetypes.MultiStore, poolID uint64, tokenIn, tokenOut string) (math.LegacyDec, error) {
	pool, err := k.GetPool(ms, poolID)
	if err != nil {
		return math.LegacyZeroDec(), err
	}
	reserveIn, reserveOut, _, err := pool.Orient(tokenIn, tokenOut)
	if err != nil {
		return math.LegacyZeroDec(), err
	}
	return SpotPrice(reserveIn, reserveOut)
}

// QuoteSwap simulates a swap and reports prices before and after it.
// Pool state is not modified.
func (k Keeper) QuoteSwap(ms storetypes.MultiStore, poolID uint64, tokenIn, tokenOut string, amountIn math.Int) (types.SwapQuote, error) {
	pool, err := k.GetPool(ms, poolID)
	if err != nil {
		return types.SwapQuote{}, err
	}
	reserveIn, reserveOut, _, err := pool.Orient(tokenIn, tokenOut)
	if err != nil {
		return types.SwapQuote{}, err
	}
	return QuoteFromReserves(poolID, tokenIn, tokenOut, amountIn, reserveIn, reserveOut, pool.FeeBps)
}

// QuoteFromReserves is QuoteSwap over explicit reserves.
func QuoteFromReserves(poolID uint64, tokenIn, tokenOut string, amountIn, reserveIn, reserveOut math.Int, feeBps uint32) (types.SwapQuote, error) {
	amountOut, err := CalculateSwapOutput(amountIn, reserveIn, reserveOut, feeBps)
	if err != nil {
		return types.SwapQuote{}, err
	}
	fee, err := fixedpoint.ApplyBps(amountIn, feeBps)
	if err != nil {
		return types.SwapQuote{}, err
	}

	before, err := SpotPrice(reserveIn, reserveOut)
	if err != nil {
		return types.SwapQuote{}, err
	}
	newReserveIn, err := fixedpoint.Add(reserveIn, amountIn)
	if err != nil {
		return types.SwapQuote{}, err
	}
	after, err := SpotPrice(newReserveIn, reserveOut.Sub(amountOut))
	if err != nil {
		return types.SwapQuote{}, err
	}
	execution, err := ExecutionPrice(amountIn, amountOut)
	if err != nil {
		return types.SwapQuote{}, err
	}

	return types.SwapQuote{
		SwapResult: types.SwapResult{
			PoolId:    poolID,
			TokenIn:   tokenIn,
			TokenOut:  tokenOut,
			AmountIn:  amountIn,
			AmountOut: amountOut,
			Fee:       fee,
		},
		SpotPriceBefore: before,
		SpotPriceAfter:  after,
		ExecutionPrice:  execution,
		PriceImpact:     PriceImpact(before, execution),
	}, nil
}
