package keeper

import (
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/dexguard/x/ratelimit/types"
)

// Keeper of the ratelimit store
type Keeper struct {
	storeKey storetypes.StoreKey
	logger   log.Logger
}

// NewKeeper creates a new ratelimit Keeper instance
func NewKeeper(key storetypes.StoreKey, logger log.Logger) *Keeper {
	return &Keeper{
		storeKey: key,
		logger:   logger.With(log.ModuleKey, "x/"+types.ModuleName),
	}
}

func (k Keeper) getStore(ms storetypes.MultiStore) storetypes.KVStore {
	return ms.GetKVStore(k.storeKey)
}

// GetLimiter returns the limiter for identifier.
func (k Keeper) GetLimiter(ms storetypes.MultiStore, identifier string) (types.Limiter, bool, error) {
	bz := k.getStore(ms).Get(types.GetLimiterKey(identifier))
	if bz == nil {
		return types.Limiter{}, false, nil
	}
	var l types.Limiter
	if err := json.Unmarshal(bz, &l); err != nil {
		return types.Limiter{}, false, fmt.Errorf("GetLimiter: unmarshal %s: %w", identifier, err)
	}
	return l, true, nil
}

// SetLimiter stores a limiter under its identifier.
func (k Keeper) SetLimiter(ms storetypes.MultiStore, l types.Limiter) error {
	if err := l.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("SetLimiter: marshal %s: %w", l.Identifier, err)
	}
	k.getStore(ms).Set(types.GetLimiterKey(l.Identifier), bz)
	return nil
}

// InitStore writes the store layout version. A mounted store that is never
// written saves no version, and the next LoadLatestVersion fails on it.
func (k Keeper) InitStore(ms storetypes.MultiStore) {
	k.getStore(ms).Set(types.SchemaVersionKey, []byte{types.SchemaVersion})
}

// GetSchemaVersion returns the stored layout version, 0 when none is set.
func (k Keeper) GetSchemaVersion(ms storetypes.MultiStore) uint8 {
	bz := k.getStore(ms).Get(types.SchemaVersionKey)
	if len(bz) != 1 {
		return 0
	}
	return bz[0]
}

// DeleteLimiter removes an identifier's limiter.
func (k Keeper) DeleteLimiter(ms storetypes.MultiStore, identifier string) {
	k.getStore(ms).Delete(types.GetLimiterKey(identifier))
}

// IterateLimiters calls cb for every stored limiter in identifier order.
func (k Keeper) IterateLimiters(ms storetypes.MultiStore, cb func(l types.Limiter) (stop bool)) error {
	iterator := prefix.NewStore(k.getStore(ms), types.LimiterKey).Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var l types.Limiter
		if err := json.Unmarshal(iterator.Value(), &l); err != nil {
			return fmt.Errorf("IterateLimiters: %s: %w", iterator.Key(), err)
		}
		if cb(l) {
			break
		}
	}
	return nil
}

// EnsureLimiter creates a limiter with cfg when identifier has none.
// It reports whether one was created.
func (k Keeper) EnsureLimiter(ms storetypes.MultiStore, identifier string, cfg types.Config) (bool, error) {
	if identifier == "" {
		return false, types.ErrInvalidIdentifier.Wrap("identifier cannot be empty")
	}
	_, found, err := k.GetLimiter(ms, identifier)
	if err != nil || found {
		return false, err
	}
	if err := k.SetLimiter(ms, types.NewLimiter(identifier, cfg)); err != nil {
		return false, err
	}
	k.logger.Debug("rate limiter created", "identifier", identifier, "threshold", cfg.Threshold.String(),
		"window", cfg.Window, "cooldown", cfg.Cooldown)
	return true, nil
}

func (k Keeper) mustGet(ms storetypes.MultiStore, identifier string) (types.Limiter, error) {
	l, found, err := k.GetLimiter(ms, identifier)
	if err != nil {
		return types.Limiter{}, err
	}
	if !found {
		return types.Limiter{}, types.ErrLimiterNotFound.Wrapf("no limiter for %s", identifier)
	}
	return l, nil
}

// RecordDelta adds |delta| to identifier's current window and reports whether
// the call triggered the limiter.
func (k Keeper) RecordDelta(ms storetypes.MultiStore, identifier string, delta math.Int, now time.Time) (bool, error) {
	l, err := k.mustGet(ms, identifier)
	if err != nil {
		return false, err
	}
	if l.Expire(now) {
		k.logger.Info("rate limit cooldown elapsed", "identifier", identifier)
	}
	triggered, err := l.Record(delta, now)
	if err != nil {
		return false, fmt.Errorf("RecordDelta: %s: %w", identifier, err)
	}
	if err := k.SetLimiter(ms, l); err != nil {
		return false, err
	}
	if triggered {
		k.logger.Info("rate limit triggered",
			"identifier", identifier,
			"accumulated", l.Accumulated.String(),
			"threshold", l.Config.Threshold.String(),
			"retry_at", l.RetryAt(),
		)
	}
	return triggered, nil
}

// IsLimited reports whether identifier is currently limited. An identifier
// without a limiter is never limited.
func (k Keeper) IsLimited(ms storetypes.MultiStore, identifier string, now time.Time) (bool, time.Time, error) {
	l, found, err := k.GetLimiter(ms, identifier)
	if err != nil || !found {
		return false, time.Time{}, err
	}
	if !l.IsLimited(now) {
		return false, time.Time{}, nil
	}
	return true, l.RetryAt(), nil
}

// Override sets the manual bypass for identifier and clears any active trigger.
func (k Keeper) Override(ms storetypes.MultiStore, identifier string) error {
	l, err := k.mustGet(ms, identifier)
	if err != nil {
		return err
	}
	l.Override()
	if err := k.SetLimiter(ms, l); err != nil {
		return err
	}
	k.logger.Debug("rate limit overridden", "identifier", identifier)
	return nil
}

// RevokeOverride clears the manual bypass for identifier.
func (k Keeper) RevokeOverride(ms storetypes.MultiStore, identifier string) error {
	l, err := k.mustGet(ms, identifier)
	if err != nil {
		return err
	}
	l.RevokeOverride()
	if err := k.SetLimiter(ms, l); err != nil {
		return err
	}
	k.logger.Debug("rate limit override revoked", "identifier", identifier)
	return nil
}

// SetConfig replaces identifier's threshold, window and cooldown. Window and
// trigger state are kept.
func (k Keeper) SetConfig(ms storetypes.MultiStore, identifier string, cfg types.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	l, err := k.mustGet(ms, identifier)
	if err != nil {
		return err
	}
	l.Config = cfg
	if err := k.SetLimiter(ms, l); err != nil {
		return err
	}
	k.logger.Info("rate limit config updated", "identifier", identifier,
		"threshold", cfg.Threshold.String(), "window", cfg.Window, "cooldown", cfg.Cooldown)
	return nil
}

// Status returns a snapshot of identifier's limiter at now.
func (k Keeper) Status(ms storetypes.MultiStore, identifier string, now time.Time) (types.Status, error) {
	l, err := k.mustGet(ms, identifier)
	if err != nil {
		return types.Status{}, err
	}
	return l.StatusAt(now), nil
}
