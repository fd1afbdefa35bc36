package types

// AdminCapability proves the caller passed an authorization check before
// invoking an admin operation. The breaker does not verify identities itself;
// it only refuses the zero capability.
type AdminCapability struct {
	holder string
}

// NewAdminCapability is called by the authorization layer once holder has
// been verified.
func NewAdminCapability(holder string) AdminCapability {
	return AdminCapability{holder: holder}
}

// Holder returns the authorized identity the capability was issued to.
func (c AdminCapability) Holder() string {
	return c.holder
}

// Validate returns ErrUnauthorized for the zero capability.
func (c AdminCapability) Validate() error {
	if c.holder == "" {
		return ErrUnauthorized.Wrap("missing admin capability")
	}
	return nil
}
