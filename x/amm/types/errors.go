package types

import (
	"cosmossdk.io/errors"
)

// AMM module sentinel errors
var (
	ErrInvalidPoolID         = errors.Register(ModuleName, 1, "invalid pool id")
	ErrPoolNotFound          = errors.Register(ModuleName, 2, "pool not found")
	ErrPoolAlreadyExists     = errors.Register(ModuleName, 3, "pool already exists")
	ErrInvalidTokenPair      = errors.Register(ModuleName, 4, "invalid token pair")
	ErrInsufficientLiquidity = errors.Register(ModuleName, 5, "insufficient liquidity in pool")
	ErrInvalidAmount         = errors.Register(ModuleName, 6, "invalid amount")
	ErrImbalancedDeposit     = errors.Register(ModuleName, 7, "deposit ratio does not match pool reserves")
	ErrInsufficientShares    = errors.Register(ModuleName, 8, "insufficient liquidity shares")
	ErrSlippageExceeded      = errors.Register(ModuleName, 9, "output amount less than minimum required")
	ErrInvariantViolation    = errors.Register(ModuleName, 10, "pool invariant violated")
	ErrInvalidFee            = errors.Register(ModuleName, 11, "invalid swap fee")
	ErrInvalidParams         = errors.Register(ModuleName, 12, "invalid params")
	ErrInvalidGenesis        = errors.Register(ModuleName, 13, "invalid genesis state")
)
