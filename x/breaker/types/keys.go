package types

const (
	// ModuleName defines the module name
	ModuleName = "breaker"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// Store key prefixes
var (
	OperationalKey = []byte{0x01} // single byte: 1 operational, 0 paused
	GracePeriodKey = []byte{0x02} // grace period end, time.Time binary encoding
	ProtectedKey   = []byte{0x03} // prefix for protected identifiers
	ParamsKey      = []byte{0x04} // key for module params
)

// GetProtectedKey returns the membership key for a protected identifier
func GetProtectedKey(identifier string) []byte {
	return append(append([]byte{}, ProtectedKey...), []byte(identifier)...)
}
