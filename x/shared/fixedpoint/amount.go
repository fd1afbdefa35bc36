// Package fixedpoint implements checked token arithmetic on cosmossdk.io/math
// integers scaled by 10^18. Every operation reports overflow and underflow as
// ErrArithmeticOverflow instead of wrapping or panicking.
package fixedpoint

import (
	"math/big"
	"strings"

	"cosmossdk.io/math"
)

// Decimals is the number of fractional digits carried by an amount.
const Decimals = 18

// BpsDenominator is the basis-point scale (10000 = 100%).
const BpsDenominator = 10000

var (
	// One is 1.0 in fixed-point units.
	One = math.NewIntWithDecimal(1, Decimals)

	bpsDenominator = math.NewInt(BpsDenominator)
)

// FromUnits converts a whole-token count to fixed-point units.
func FromUnits(n int64) math.Int {
	return math.NewIntWithDecimal(n, Decimals)
}

// Parse reads a non-negative decimal string ("1.5", "100") into fixed-point units.
// At most Decimals fractional digits are accepted.
func Parse(s string) (math.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.Int{}, ErrInvalidAmount.Wrap("empty amount")
	}
	d, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return math.Int{}, ErrInvalidAmount.Wrapf("%q: %s", s, err)
	}
	if d.IsNegative() {
		return math.Int{}, ErrInvalidAmount.Wrapf("%q: amount cannot be negative", s)
	}
	return FromDec(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) math.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders fixed-point units as a decimal string with all 18 fractional digits.
func Format(a math.Int) string {
	if a.IsNil() {
		return math.LegacyZeroDec().String()
	}
	return math.LegacyNewDecFromBigIntWithPrec(a.BigInt(), Decimals).String()
}

// ToDec reinterprets fixed-point units as a LegacyDec without rescaling.
func ToDec(a math.Int) math.LegacyDec {
	return math.LegacyNewDecFromBigIntWithPrec(a.BigInt(), Decimals)
}

// Validate rejects nil and negative amounts.
func Validate(a math.Int) error {
	if a.IsNil() {
		return ErrInvalidAmount.Wrap("amount is nil")
	}
	if a.IsNegative() {
		return ErrInvalidAmount.Wrapf("amount %s is negative", a)
	}
	return nil
}

// Add returns a + b.
func Add(a, b math.Int) (math.Int, error) {
	res, err := a.SafeAdd(b)
	if err != nil {
		return math.Int{}, ErrArithmeticOverflow.Wrapf("%s + %s", a, b)
	}
	return res, nil
}

// Sub returns a - b. A negative result is an underflow.
func Sub(a, b math.Int) (math.Int, error) {
	if a.LT(b) {
		return math.Int{}, ErrArithmeticOverflow.Wrapf("underflow: %s - %s", a, b)
	}
	return a.Sub(b), nil
}

// Mul returns a * b.
func Mul(a, b math.Int) (math.Int, error) {
	res, err := a.SafeMul(b)
	if err != nil {
		return math.Int{}, ErrArithmeticOverflow.Wrapf("%s * %s", a, b)
	}
	return res, nil
}

// Quo returns floor(a / b).
func Quo(a, b math.Int) (math.Int, error) {
	if b.IsZero() {
		return math.Int{}, ErrDivisionByZero.Wrapf("%s / 0", a)
	}
	return a.Quo(b), nil
}

// MulDiv returns floor(a * b / c). The intermediate product is computed
// without a bit limit, so only a quotient above 256 bits is an overflow.
func MulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, ErrDivisionByZero.Wrapf("%s * %s / 0", a, b)
	}
	prod := new(big.Int).Mul(a.BigInt(), b.BigInt())
	prod.Quo(prod, c.BigInt())
	if prod.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow.Wrapf("%s * %s / %s", a, b, c)
	}
	return math.NewIntFromBigIntMut(prod), nil
}

// Sqrt returns floor(sqrt(a)) for a >= 0.
func Sqrt(a math.Int) (math.Int, error) {
	if a.IsNegative() {
		return math.Int{}, ErrInvalidAmount.Wrapf("sqrt of negative %s", a)
	}
	return math.NewIntFromBigIntMut(new(big.Int).Sqrt(a.BigInt())), nil
}

// SqrtProduct returns floor(sqrt(a * b)) without bounding the intermediate product.
func SqrtProduct(a, b math.Int) (math.Int, error) {
	if a.IsNegative() || b.IsNegative() {
		return math.Int{}, ErrInvalidAmount.Wrapf("sqrt of negative product %s * %s", a, b)
	}
	prod := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return math.NewIntFromBigIntMut(prod.Sqrt(prod)), nil
}

// ApplyBps returns floor(a * bps / 10000).
func ApplyBps(a math.Int, bps uint32) (math.Int, error) {
	return MulDiv(a, math.NewIntFromUint64(uint64(bps)), bpsDenominator)
}

// Abs returns |a|.
func Abs(a math.Int) math.Int {
	return a.Abs()
}

// CmpProduct compares a*b with c*d without bounding either product.
func CmpProduct(a, b, c, d math.Int) int {
	left := new(big.Int).Mul(a.BigInt(), b.BigInt())
	right := new(big.Int).Mul(c.BigInt(), d.BigInt())
	return left.Cmp(right)
}

// RatioWithinBps reports whether a:b matches ra:rb to within tolBps,
// measured as |a*rb - b*ra| relative to b*ra.
func RatioWithinBps(a, b, ra, rb math.Int, tolBps uint32) bool {
	lhs := new(big.Int).Mul(a.BigInt(), rb.BigInt())
	rhs := new(big.Int).Mul(b.BigInt(), ra.BigInt())
	if rhs.Sign() == 0 {
		return lhs.Sign() == 0
	}
	diff := new(big.Int).Sub(lhs, rhs)
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(BpsDenominator))
	limit := new(big.Int).Mul(rhs, big.NewInt(int64(tolBps)))
	return diff.Cmp(limit) <= 0
}

// FromDec reinterprets an 18-decimal LegacyDec as fixed-point units.
func FromDec(d math.LegacyDec) (math.Int, error) {
	if d.IsNil() {
		return math.Int{}, ErrInvalidAmount.Wrap("decimal is nil")
	}
	if d.IsNegative() {
		return math.Int{}, ErrInvalidAmount.Wrapf("decimal %s must be non-negative", d)
	}
	raw := d.BigInt()
	if raw.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrArithmeticOverflow.Wrapf("decimal %s exceeds %d bits", d, math.MaxBitLen)
	}
	return math.NewIntFromBigIntMut(raw), nil
}

// MustFromDec is FromDec for values already known to be in range.
func MustFromDec(d math.LegacyDec) math.Int {
	v, err := FromDec(d)
	if err != nil {
		panic(err)
	}
	return v
}
