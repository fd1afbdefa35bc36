package types

import (
	"encoding/binary"
	"strings"
)

const (
	// ModuleName defines the module name
	ModuleName = "amm"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// Store key prefixes
var (
	PoolKey         = []byte{0x01} // prefix for pool store
	PoolCountKey    = []byte{0x02} // key for the next pool id
	LiquidityKey    = []byte{0x03} // prefix for liquidity provider shares
	PoolByTokensKey = []byte{0x04} // prefix for pool lookup by token pair
	ParamsKey       = []byte{0x05} // key for module params
)

// GetPoolKey returns the store key for a pool
func GetPoolKey(poolID uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, PoolKey...), poolID)
}

// GetLiquidityPrefix returns the prefix under which every provider of a pool is stored
func GetLiquidityPrefix(poolID uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, LiquidityKey...), poolID)
}

// GetLiquidityKey returns the store key for liquidity provider shares
func GetLiquidityKey(poolID uint64, provider string) []byte {
	return append(GetLiquidityPrefix(poolID), []byte(provider)...)
}

// GetPoolByTokensKey returns the store key for pool lookup by token pair
func GetPoolByTokensKey(tokenA, tokenB string) []byte {
	tokenA, tokenB = SortTokens(tokenA, tokenB)
	key := append([]byte{}, PoolByTokensKey...)
	return append(key, []byte(tokenA+"/"+tokenB)...)
}

// SortTokens orders a token pair canonically.
func SortTokens(tokenA, tokenB string) (string, string) {
	if strings.Compare(tokenA, tokenB) > 0 {
		return tokenB, tokenA
	}
	return tokenA, tokenB
}
