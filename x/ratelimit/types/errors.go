package types

import (
	"cosmossdk.io/errors"
)

// Rate limit module sentinel errors
var (
	ErrLimiterNotFound   = errors.Register(ModuleName, 1, "rate limiter not found")
	ErrInvalidConfig     = errors.Register(ModuleName, 2, "invalid rate limiter config")
	ErrInvalidIdentifier = errors.Register(ModuleName, 3, "invalid identifier")
)
