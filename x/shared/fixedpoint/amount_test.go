package fixedpoint_test

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

func maxInt() math.Int {
	m := new(big.Int).Lsh(big.NewInt(1), math.MaxBitLen)
	return math.NewIntFromBigInt(m.Sub(m, big.NewInt(1)))
}

func TestParseAndFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.000000000000000001", "1"},
		{"100", "100000000000000000000"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := fixedpoint.Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.String())
		})
	}

	require.Equal(t, "1.500000000000000000", fixedpoint.Format(fixedpoint.MustParse("1.5")))
	require.Equal(t, "0.000000000000000000", fixedpoint.Format(math.Int{}))
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "0.0000000000000000001"} {
		_, err := fixedpoint.Parse(in)
		require.ErrorIs(t, err, fixedpoint.ErrInvalidAmount, in)
	}
}

func TestAddOverflow(t *testing.T) {
	_, err := fixedpoint.Add(maxInt(), math.OneInt())
	require.ErrorIs(t, err, fixedpoint.ErrArithmeticOverflow)

	sum, err := fixedpoint.Add(math.NewInt(2), math.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), sum.Int64())
}

func TestSubUnderflow(t *testing.T) {
	_, err := fixedpoint.Sub(math.NewInt(1), math.NewInt(2))
	require.ErrorIs(t, err, fixedpoint.ErrArithmeticOverflow)

	diff, err := fixedpoint.Sub(math.NewInt(2), math.NewInt(2))
	require.NoError(t, err)
	require.True(t, diff.IsZero())
}

func TestMulOverflow(t *testing.T) {
	_, err := fixedpoint.Mul(maxInt(), math.NewInt(2))
	require.ErrorIs(t, err, fixedpoint.ErrArithmeticOverflow)
}

func TestQuoByZero(t *testing.T) {
	_, err := fixedpoint.Quo(math.NewInt(1), math.ZeroInt())
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)

	_, err = fixedpoint.MulDiv(math.NewInt(1), math.NewInt(1), math.ZeroInt())
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)
}

func TestMulDivWideIntermediate(t *testing.T) {
	// maxInt * maxInt does not fit, but the quotient does.
	got, err := fixedpoint.MulDiv(maxInt(), maxInt(), maxInt())
	require.NoError(t, err)
	require.True(t, got.Equal(maxInt()))

	_, err = fixedpoint.MulDiv(maxInt(), maxInt(), math.NewInt(2))
	require.ErrorIs(t, err, fixedpoint.ErrArithmeticOverflow)
}

func TestSqrtProduct(t *testing.T) {
	got, err := fixedpoint.SqrtProduct(fixedpoint.FromUnits(100), fixedpoint.FromUnits(1000))
	require.NoError(t, err)
	// sqrt(100 * 1000) = 316.227766016837933199...
	require.Equal(t, "316.227766016837933199", fixedpoint.Format(got))

	_, err = fixedpoint.Sqrt(math.NewInt(-4))
	require.ErrorIs(t, err, fixedpoint.ErrInvalidAmount)
}

func TestApplyBps(t *testing.T) {
	got, err := fixedpoint.ApplyBps(fixedpoint.FromUnits(1), 30)
	require.NoError(t, err)
	require.Equal(t, "0.003000000000000000", fixedpoint.Format(got))
}

func TestSqrtIsFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64().Draw(t, "n")
		a := math.NewIntFromUint64(n)
		r, err := fixedpoint.Sqrt(a)
		require.NoError(t, err)

		next := r.AddRaw(1)
		require.True(t, r.Mul(r).LTE(a))
		require.True(t, next.Mul(next).GT(a))
	})
}

func TestRatioWithinBps(t *testing.T) {
	ra, rb := fixedpoint.FromUnits(100), fixedpoint.FromUnits(1000)

	require.True(t, fixedpoint.RatioWithinBps(fixedpoint.FromUnits(10), fixedpoint.FromUnits(100), ra, rb, 0))
	// 0.5% off with a 1% tolerance passes, 2% off fails.
	require.True(t, fixedpoint.RatioWithinBps(fixedpoint.FromUnits(10), fixedpoint.MustParse("99.5"), ra, rb, 100))
	require.False(t, fixedpoint.RatioWithinBps(fixedpoint.FromUnits(10), fixedpoint.FromUnits(98), ra, rb, 100))
}

func TestCmpProduct(t *testing.T) {
	require.Equal(t, 0, fixedpoint.CmpProduct(math.NewInt(2), math.NewInt(6), math.NewInt(3), math.NewInt(4)))
	require.Equal(t, 1, fixedpoint.CmpProduct(maxInt(), maxInt(), maxInt(), math.NewInt(1)))
}
