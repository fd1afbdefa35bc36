package app

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace for exchange-level errors.
const Codespace = "dexguard"

var (
	ErrInvalidAddress     = errorsmod.Register(Codespace, 1, "invalid address")
	ErrInvalidConfig      = errorsmod.Register(Codespace, 2, "invalid config")
	ErrAlreadyInitialized = errorsmod.Register(Codespace, 3, "store already initialized")
	ErrInvalidGenesis     = errorsmod.Register(Codespace, 4, "invalid genesis")
)
