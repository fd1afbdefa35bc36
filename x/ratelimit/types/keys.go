package types

const (
	// ModuleName defines the module name
	ModuleName = "ratelimit"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// SchemaVersion is the layout version written by InitStore
	SchemaVersion = 1
)

// Store key prefixes
var (
	SchemaVersionKey = []byte{0x00} // single byte: store layout version
	LimiterKey       = []byte{0x01} // prefix for limiter state by identifier
)

// GetLimiterKey returns the store key for an identifier's limiter
func GetLimiterKey(identifier string) []byte {
	return append(append([]byte{}, LimiterKey...), []byte(identifier)...)
}
