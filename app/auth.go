package app

import (
	"github.com/ethereum/go-ethereum/common"

	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
)

// Authorizer issues admin capabilities to the addresses listed in breaker.admins.
type Authorizer struct {
	admins map[common.Address]struct{}
}

// NewAuthorizer returns an authorizer for the given admin set.
func NewAuthorizer(admins []common.Address) *Authorizer {
	set := make(map[common.Address]struct{}, len(admins))
	for _, a := range admins {
		set[a] = struct{}{}
	}
	return &Authorizer{admins: set}
}

// IsAdmin reports whether addr may run admin operations.
func (a *Authorizer) IsAdmin(addr common.Address) bool {
	_, ok := a.admins[addr]
	return ok
}

// Authorize returns the admin capability for from, or ErrUnauthorized.
func (a *Authorizer) Authorize(from string) (breakertypes.AdminCapability, error) {
	addr, err := ParseAddress(from)
	if err != nil {
		return breakertypes.AdminCapability{}, breakertypes.ErrUnauthorized.Wrap(err.Error())
	}
	if !a.IsAdmin(addr) {
		return breakertypes.AdminCapability{}, breakertypes.ErrUnauthorized.Wrapf("%s is not an admin", addr.Hex())
	}
	return breakertypes.NewAdminCapability(addr.Hex()), nil
}
