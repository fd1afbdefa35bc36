package types

import (
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

const (
	// DefaultFeeBps is the swap fee applied when a pool is created without one (0.30%).
	DefaultFeeBps uint32 = 30

	// DefaultImbalanceToleranceBps is the allowed deviation of a deposit ratio
	// from the reserve ratio (1%).
	DefaultImbalanceToleranceBps uint32 = 100

	// MaxFeeBps caps the swap fee at 10%.
	MaxFeeBps uint32 = 1000
)

// Params holds the module-wide AMM configuration.
type Params struct {
	DefaultFeeBps         uint32 `json:"default_fee_bps"`
	ImbalanceToleranceBps uint32 `json:"imbalance_tolerance_bps"`
}

// DefaultParams returns the default AMM params.
func DefaultParams() Params {
	return Params{
		DefaultFeeBps:         DefaultFeeBps,
		ImbalanceToleranceBps: DefaultImbalanceToleranceBps,
	}
}

// Validate checks the params are within range.
func (p Params) Validate() error {
	if err := ValidateFeeBps(p.DefaultFeeBps); err != nil {
		return err
	}
	if p.ImbalanceToleranceBps >= fixedpoint.BpsDenominator {
		return ErrInvalidParams.Wrapf("imbalance tolerance %d bps must be below %d", p.ImbalanceToleranceBps, fixedpoint.BpsDenominator)
	}
	return nil
}

// ValidateFeeBps checks a swap fee is within [0, MaxFeeBps].
func ValidateFeeBps(feeBps uint32) error {
	if feeBps > MaxFeeBps {
		return ErrInvalidFee.Wrapf("fee %d bps exceeds maximum %d", feeBps, MaxFeeBps)
	}
	return nil
}
