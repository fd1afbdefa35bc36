package types

import (
	"strings"

	"cosmossdk.io/math"

	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

// Pool is a constant-product liquidity pool over two tokens.
// A pool is either empty (all zero) or fully funded.
type Pool struct {
	Id          uint64   `json:"id"`
	TokenA      string   `json:"token_a"`
	TokenB      string   `json:"token_b"`
	ReserveA    math.Int `json:"reserve_a"`
	ReserveB    math.Int `json:"reserve_b"`
	TotalShares math.Int `json:"total_shares"`
	FeeBps      uint32   `json:"fee_bps"`
	Creator     string   `json:"creator"`
}

// NewPool returns an empty pool for the given pair.
func NewPool(id uint64, tokenA, tokenB string, feeBps uint32, creator string) Pool {
	return Pool{
		Id:          id,
		TokenA:      tokenA,
		TokenB:      tokenB,
		ReserveA:    math.ZeroInt(),
		ReserveB:    math.ZeroInt(),
		TotalShares: math.ZeroInt(),
		FeeBps:      feeBps,
		Creator:     creator,
	}
}

// IsEmpty reports whether the pool holds no liquidity.
func (p Pool) IsEmpty() bool {
	return p.TotalShares.IsZero()
}

// Orient returns (reserveIn, reserveOut) for a swap of tokenIn into tokenOut.
func (p Pool) Orient(tokenIn, tokenOut string) (reserveIn, reserveOut math.Int, aIn bool, err error) {
	switch {
	case tokenIn == p.TokenA && tokenOut == p.TokenB:
		return p.ReserveA, p.ReserveB, true, nil
	case tokenIn == p.TokenB && tokenOut == p.TokenA:
		return p.ReserveB, p.ReserveA, false, nil
	case tokenIn == tokenOut:
		return math.Int{}, math.Int{}, false, ErrInvalidTokenPair.Wrap("cannot swap identical tokens")
	default:
		return math.Int{}, math.Int{}, false, ErrInvalidTokenPair.Wrapf("invalid token pair for pool %d: expected %s/%s, got %s/%s",
			p.Id, p.TokenA, p.TokenB, tokenIn, tokenOut)
	}
}

// Validate checks the stored pool is well-formed.
func (p Pool) Validate() error {
	if p.Id == 0 {
		return ErrInvalidPoolID.Wrap("pool id cannot be zero")
	}
	if err := ValidateTokenPair(p.TokenA, p.TokenB); err != nil {
		return err
	}
	if err := ValidateFeeBps(p.FeeBps); err != nil {
		return err
	}
	for name, v := range map[string]math.Int{"reserve_a": p.ReserveA, "reserve_b": p.ReserveB, "total_shares": p.TotalShares} {
		if err := fixedpoint.Validate(v); err != nil {
			return ErrInvalidAmount.Wrapf("pool %d %s: %s", p.Id, name, err)
		}
	}
	if p.TotalShares.IsPositive() && (!p.ReserveA.IsPositive() || !p.ReserveB.IsPositive()) {
		return ErrInvariantViolation.Wrapf("pool %d has shares but a zero reserve", p.Id)
	}
	if p.TotalShares.IsZero() && (!p.ReserveA.IsZero() || !p.ReserveB.IsZero()) {
		return ErrInvariantViolation.Wrapf("pool %d has reserves but no shares", p.Id)
	}
	return nil
}

// ValidateTokenPair rejects blank and identical token names.
func ValidateTokenPair(tokenA, tokenB string) error {
	if strings.TrimSpace(tokenA) == "" || strings.TrimSpace(tokenB) == "" {
		return ErrInvalidTokenPair.Wrap("token names cannot be empty")
	}
	if tokenA == tokenB {
		return ErrInvalidTokenPair.Wrapf("identical tokens: %s", tokenA)
	}
	if strings.Contains(tokenA, "/") || strings.Contains(tokenB, "/") {
		return ErrInvalidTokenPair.Wrap("token names cannot contain '/'")
	}
	return nil
}

// LiquidityPosition is a provider's share balance in one pool.
type LiquidityPosition struct {
	PoolId   uint64   `json:"pool_id"`
	Provider string   `json:"provider"`
	Shares   math.Int `json:"shares"`
}

// SwapResult describes an executed swap.
type SwapResult struct {
	PoolId    uint64   `json:"pool_id"`
	TokenIn   string   `json:"token_in"`
	TokenOut  string   `json:"token_out"`
	AmountIn  math.Int `json:"amount_in"`
	AmountOut math.Int `json:"amount_out"`
	Fee       math.Int `json:"fee"`
}

// SwapQuote is the observational view of a swap: nothing is written.
type SwapQuote struct {
	SwapResult
	SpotPriceBefore math.LegacyDec `json:"spot_price_before"`
	SpotPriceAfter  math.LegacyDec `json:"spot_price_after"`
	ExecutionPrice  math.LegacyDec `json:"execution_price"`
	PriceImpact     math.LegacyDec `json:"price_impact"`
}

// DepositResult describes an executed addLiquidity.
type DepositResult struct {
	PoolId       uint64   `json:"pool_id"`
	AmountA      math.Int `json:"amount_a"`
	AmountB      math.Int `json:"amount_b"`
	SharesMinted math.Int `json:"shares_minted"`
}

// WithdrawResult describes an executed removeLiquidity.
type WithdrawResult struct {
	PoolId      uint64   `json:"pool_id"`
	Shares      math.Int `json:"shares"`
	AmountA     math.Int `json:"amount_a"`
	AmountB     math.Int `json:"amount_b"`
	PoolDrained bool     `json:"pool_drained"`
}
