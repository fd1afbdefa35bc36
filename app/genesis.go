package app

import (
	"encoding/json"
	"fmt"

	ammtypes "github.com/paw-chain/dexguard/x/amm/types"
	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
)

// GenesisState is the exchange state keyed by module name.
type GenesisState map[string]json.RawMessage

// NewDefaultGenesisState builds the genesis state a fresh store starts from,
// with module params taken from cfg.
func NewDefaultGenesisState(cfg Config) GenesisState {
	genesis := make(GenesisState)

	ammGenesis := ammtypes.DefaultGenesis()
	ammGenesis.Params = cfg.AMMParams()
	genesis[ammtypes.ModuleName] = mustMarshalJSON(ammGenesis)

	breakerGenesis := breakertypes.DefaultGenesis()
	breakerGenesis.Params = cfg.BreakerParams()
	genesis[breakertypes.ModuleName] = mustMarshalJSON(breakerGenesis)

	return genesis
}

// AMM decodes the amm module section.
func (gs GenesisState) AMM() (ammtypes.GenesisState, error) {
	var state ammtypes.GenesisState
	if err := gs.decode(ammtypes.ModuleName, &state); err != nil {
		return ammtypes.GenesisState{}, err
	}
	return state, nil
}

// Breaker decodes the breaker module section.
func (gs GenesisState) Breaker() (breakertypes.GenesisState, error) {
	var state breakertypes.GenesisState
	if err := gs.decode(breakertypes.ModuleName, &state); err != nil {
		return breakertypes.GenesisState{}, err
	}
	return state, nil
}

func (gs GenesisState) decode(module string, target any) error {
	bz, ok := gs[module]
	if !ok {
		return ErrInvalidGenesis.Wrapf("missing %s section", module)
	}
	if err := json.Unmarshal(bz, target); err != nil {
		return ErrInvalidGenesis.Wrapf("%s: %s", module, err)
	}
	return nil
}

// Validate decodes and validates every module section.
func (gs GenesisState) Validate() error {
	for module := range gs {
		if module != ammtypes.ModuleName && module != breakertypes.ModuleName {
			return ErrInvalidGenesis.Wrapf("unknown module %q", module)
		}
	}

	ammGenesis, err := gs.AMM()
	if err != nil {
		return err
	}
	if err := ammGenesis.Validate(); err != nil {
		return fmt.Errorf("amm genesis: %w", err)
	}

	breakerGenesis, err := gs.Breaker()
	if err != nil {
		return err
	}
	if err := breakerGenesis.Validate(); err != nil {
		return fmt.Errorf("breaker genesis: %w", err)
	}
	return nil
}

func mustMarshalJSON(v any) json.RawMessage {
	bz, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bz
}
