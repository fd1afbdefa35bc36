package types

import (
	"time"

	"cosmossdk.io/math"

	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

const (
	DefaultWindow   = 60 * time.Second
	DefaultCooldown = time.Hour
)

// DefaultThreshold is 1000 whole tokens per window.
var DefaultThreshold = fixedpoint.FromUnits(1000)

// Params holds the limiter defaults applied to newly protected identifiers.
type Params struct {
	DefaultThreshold math.Int      `json:"default_threshold"`
	DefaultWindow    time.Duration `json:"default_window"`
	DefaultCooldown  time.Duration `json:"default_cooldown"`
}

// DefaultParams returns the default breaker params.
func DefaultParams() Params {
	return Params{
		DefaultThreshold: DefaultThreshold,
		DefaultWindow:    DefaultWindow,
		DefaultCooldown:  DefaultCooldown,
	}
}

// LimiterConfig returns the limiter config a new protected identifier gets.
func (p Params) LimiterConfig() ratelimittypes.Config {
	return ratelimittypes.Config{
		Threshold: p.DefaultThreshold,
		Window:    p.DefaultWindow,
		Cooldown:  p.DefaultCooldown,
	}
}

// Validate checks the params are within range.
func (p Params) Validate() error {
	if err := p.LimiterConfig().Validate(); err != nil {
		return ErrInvalidParams.Wrap(err.Error())
	}
	return nil
}
