package types

import (
	"time"

	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// GenesisState is the exported breaker state, limiters included.
type GenesisState struct {
	Params             Params                   `json:"params"`
	Operational        bool                     `json:"operational"`
	GracePeriodEnd     *time.Time               `json:"grace_period_end,omitempty"`
	ProtectedContracts []string                 `json:"protected_contracts"`
	Limiters           []ratelimittypes.Limiter `json:"limiters"`
}

// DefaultGenesis returns an operational breaker with nothing protected.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:             DefaultParams(),
		Operational:        true,
		ProtectedContracts: []string{},
		Limiters:           []ratelimittypes.Limiter{},
	}
}

// Validate ensures the genesis state is well-formed.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(gs.ProtectedContracts))
	for _, id := range gs.ProtectedContracts {
		if id == "" {
			return ErrInvalidGenesis.Wrap("empty protected identifier")
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate protected identifier %s", id)
		}
		seen[id] = struct{}{}
	}
	limiters := make(map[string]struct{}, len(gs.Limiters))
	for _, l := range gs.Limiters {
		if err := l.Validate(); err != nil {
			return ErrInvalidGenesis.Wrap(err.Error())
		}
		if _, dup := limiters[l.Identifier]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate limiter %s", l.Identifier)
		}
		limiters[l.Identifier] = struct{}{}
	}
	for id := range seen {
		if _, ok := limiters[id]; !ok {
			return ErrInvalidGenesis.Wrapf("protected identifier %s has no limiter", id)
		}
	}
	return nil
}
