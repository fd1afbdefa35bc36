package types

import (
	"errors"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
)

// Circuit breaker sentinel errors
var (
	ErrCircuitBreakerPaused = errorsmod.Register(ModuleName, 1, "circuit breaker paused")
	ErrGracePeriodActive    = errorsmod.Register(ModuleName, 2, "grace period active: withdrawals only")
	ErrRateLimited          = errorsmod.Register(ModuleName, 3, "rate limited")
	ErrUnauthorized         = errorsmod.Register(ModuleName, 4, "unauthorized")
	ErrInvalidGracePeriod   = errorsmod.Register(ModuleName, 5, "invalid grace period")
	ErrInvalidOperation     = errorsmod.Register(ModuleName, 6, "invalid operation kind")
	ErrInvalidParams        = errorsmod.Register(ModuleName, 7, "invalid params")
	ErrInvalidGenesis       = errorsmod.Register(ModuleName, 8, "invalid genesis state")
)

// RetryableError is returned for expected, recoverable rejections. RetryAt is
// the earliest instant the same call can succeed.
type RetryableError struct {
	Err        error
	Identifier string
	RetryAt    time.Time
}

func (e *RetryableError) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("%s: %s: retry after %s", e.Identifier, e.Err, e.RetryAt.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s: retry after %s", e.Err, e.RetryAt.UTC().Format(time.RFC3339))
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Cause lets errorsmod sentinels match through the wrapper.
func (e *RetryableError) Cause() error {
	return e.Err
}

// RetryAfter extracts the retry instant from err, if it carries one.
func RetryAfter(err error) (time.Time, bool) {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.RetryAt, true
	}
	return time.Time{}, false
}

// IsRecoverable reports whether err is a rejection the caller may retry later.
func IsRecoverable(err error) bool {
	return errorsmod.IsOf(err, ErrRateLimited, ErrGracePeriodActive)
}
