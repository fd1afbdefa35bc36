package fixedpoint

import (
	"cosmossdk.io/errors"
)

// ModuleName is the error codespace for fixed-point arithmetic.
const ModuleName = "fixedpoint"

var (
	ErrArithmeticOverflow = errors.Register(ModuleName, 2, "arithmetic overflow")
	ErrDivisionByZero     = errors.Register(ModuleName, 3, "division by zero")
	ErrInvalidAmount      = errors.Register(ModuleName, 4, "invalid amount")
)
