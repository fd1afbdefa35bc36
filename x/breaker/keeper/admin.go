package keeper

import (
	"time"

	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/breaker/types"
	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// SetOperationalStatus flips the global kill switch.
func (k Keeper) SetOperationalStatus(ms storetypes.MultiStore, capability types.AdminCapability, operational bool) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	previous := k.GetOperational(ms)
	k.SetOperational(ms, operational)
	if previous != operational {
		k.logger.Info("circuit breaker operational status changed",
			"operational", operational,
			"admin", capability.Holder(),
		)
	}
	return nil
}

// StartGracePeriod opens a withdrawal-only window ending at end, which must be after now.
func (k Keeper) StartGracePeriod(ms storetypes.MultiStore, capability types.AdminCapability, end, now time.Time) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	if !end.After(now) {
		return types.ErrInvalidGracePeriod.Wrapf("end %s must be after now %s", end.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	if err := k.SetGracePeriodEnd(ms, end); err != nil {
		return err
	}
	k.logger.Info("grace period started", "end", end, "admin", capability.Holder())
	return nil
}

// EndGracePeriod clears the grace period ahead of its scheduled end.
func (k Keeper) EndGracePeriod(ms storetypes.MultiStore, capability types.AdminCapability) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	k.ClearGracePeriod(ms)
	k.logger.Info("grace period ended", "admin", capability.Holder())
	return nil
}

// AddProtectedContracts starts rate limiting the identifiers. Identifiers
// without a limiter get one with the default config.
func (k Keeper) AddProtectedContracts(ms storetypes.MultiStore, capability types.AdminCapability, identifiers ...string) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	params, err := k.GetParams(ms)
	if err != nil {
		return err
	}
	for _, id := range identifiers {
		if id == "" {
			return ratelimittypes.ErrInvalidIdentifier.Wrap("identifier cannot be empty")
		}
		if _, err := k.limiters.EnsureLimiter(ms, id, params.LimiterConfig()); err != nil {
			return err
		}
		if k.IsProtected(ms, id) {
			continue
		}
		k.SetProtected(ms, id, true)
		k.logger.Info("contract protected", "identifier", id, "admin", capability.Holder())
	}
	k.observeProtected(ms)
	return nil
}

// RemoveProtectedContracts stops rate limiting the identifiers. Their limiter
// state is kept and applies again if they are re-added.
func (k Keeper) RemoveProtectedContracts(ms storetypes.MultiStore, capability types.AdminCapability, identifiers ...string) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	for _, id := range identifiers {
		if !k.IsProtected(ms, id) {
			continue
		}
		k.SetProtected(ms, id, false)
		k.logger.Info("contract unprotected", "identifier", id, "admin", capability.Holder())
	}
	k.observeProtected(ms)
	return nil
}

// OverrideRateLimit bypasses identifier's limiter until RevokeOverride.
// Operational status and the grace period are untouched.
func (k Keeper) OverrideRateLimit(ms storetypes.MultiStore, capability types.AdminCapability, identifier string) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	if err := k.limiters.Override(ms, identifier); err != nil {
		return err
	}
	k.metrics.onCommit(func() { k.metrics.Overrides.WithLabelValues("override").Inc() })
	k.logger.Info("rate limit override applied", "identifier", identifier, "admin", capability.Holder())
	return nil
}

// RevokeOverride restores rate limiting for identifier.
func (k Keeper) RevokeOverride(ms storetypes.MultiStore, capability types.AdminCapability, identifier string) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	if err := k.limiters.RevokeOverride(ms, identifier); err != nil {
		return err
	}
	k.metrics.onCommit(func() { k.metrics.Overrides.WithLabelValues("revoke").Inc() })
	k.logger.Info("rate limit override revoked", "identifier", identifier, "admin", capability.Holder())
	return nil
}

// SetLimiterConfig changes identifier's threshold, window and cooldown.
func (k Keeper) SetLimiterConfig(ms storetypes.MultiStore, capability types.AdminCapability, identifier string, cfg ratelimittypes.Config) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	return k.limiters.SetConfig(ms, identifier, cfg)
}

// UpdateParams replaces the defaults used for newly protected identifiers.
func (k Keeper) UpdateParams(ms storetypes.MultiStore, capability types.AdminCapability, params types.Params) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ms, params); err != nil {
		return err
	}
	k.logger.Info("breaker params updated", "admin", capability.Holder())
	return nil
}
