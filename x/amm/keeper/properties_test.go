package keeper_test

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/paw-chain/dexguard/x/amm/keeper"
	"github.com/paw-chain/dexguard/x/amm/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

func drawAmount(t *rapid.T, label string) math.Int {
	return math.NewIntFromUint64(rapid.Uint64Range(1, 1<<60).Draw(t, label)).MulRaw(1_000_000)
}

func drawFee(t *rapid.T) uint32 {
	return rapid.Uint32Range(0, types.MaxFeeBps).Draw(t, "feeBps")
}

// expected rejections for tiny or draining swaps
func skippable(err error) bool {
	return errors.Is(err, types.ErrInvalidAmount) || errors.Is(err, types.ErrInsufficientLiquidity)
}

func TestPropertySwapNeverDecreasesProduct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reserveIn := drawAmount(t, "reserveIn")
		reserveOut := drawAmount(t, "reserveOut")
		amountIn := drawAmount(t, "amountIn")
		feeBps := drawFee(t)

		out, err := keeper.CalculateSwapOutput(amountIn, reserveIn, reserveOut, feeBps)
		if skippable(err) {
			t.Skip(err.Error())
		}
		require.NoError(t, err)

		require.True(t, out.LT(reserveOut), "output %s must stay below reserve %s", out, reserveOut)
		newIn := reserveIn.Add(amountIn)
		newOut := reserveOut.Sub(out)
		require.GreaterOrEqual(t, fixedpoint.CmpProduct(newIn, newOut, reserveIn, reserveOut), 0)
	})
}

func TestPropertySwapRoundTripLosesValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reserveA := drawAmount(t, "reserveA")
		reserveB := drawAmount(t, "reserveB")
		amountIn := drawAmount(t, "amountIn")
		// with a zero fee an exact round trip can return the input unchanged
		feeBps := rapid.Uint32Range(1, types.MaxFeeBps).Draw(t, "feeBps")

		outB, err := keeper.CalculateSwapOutput(amountIn, reserveA, reserveB, feeBps)
		if skippable(err) {
			t.Skip(err.Error())
		}
		require.NoError(t, err)

		back, err := keeper.CalculateSwapOutput(outB, reserveB.Sub(outB), reserveA.Add(amountIn), feeBps)
		if skippable(err) {
			t.Skip(err.Error())
		}
		require.NoError(t, err)
		require.True(t, back.LT(amountIn), "round trip returned %s for %s", back, amountIn)
	})
}

func TestPropertyAddThenRemoveNeverProfits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reserveA := drawAmount(t, "reserveA")
		reserveB := drawAmount(t, "reserveB")
		totalShares, err := fixedpoint.SqrtProduct(reserveA, reserveB)
		require.NoError(t, err)

		// deposit in the exact reserve ratio, scaled by num/den
		num := math.NewInt(int64(rapid.IntRange(1, 1000).Draw(t, "num")))
		den := math.NewInt(int64(rapid.IntRange(1, 1000).Draw(t, "den")))
		amountA := reserveA.Mul(num).Quo(den)
		amountB := reserveB.Mul(num).Quo(den)

		shares, err := keeper.CalculateDepositShares(amountA, amountB, reserveA, reserveB, totalShares, types.DefaultImbalanceToleranceBps)
		if err != nil {
			require.True(t, errors.Is(err, types.ErrInvalidAmount) || errors.Is(err, types.ErrImbalancedDeposit), err.Error())
			t.Skip(err.Error())
		}

		outA, outB, err := keeper.CalculateWithdrawAmounts(shares, reserveA.Add(amountA), reserveB.Add(amountB), totalShares.Add(shares))
		require.NoError(t, err)
		require.True(t, outA.LTE(amountA), "withdrew %s of token a after depositing %s", outA, amountA)
		require.True(t, outB.LTE(amountB), "withdrew %s of token b after depositing %s", outB, amountB)
	})
}
