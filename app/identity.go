package app

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	ammtypes "github.com/paw-chain/dexguard/x/amm/types"
)

// Identifier labels used when deriving limiter identifiers for contracts.
const (
	LabelPool     = "DEX_POOL"
	LabelSwap     = "DEX_SWAP"
	LabelDeposit  = "DEX_DEPOSIT"
	LabelWithdraw = "DEX_WITHDRAW"
)

// poolAddressSalt keeps pool addresses out of the space of externally owned accounts.
var poolAddressSalt = []byte("dexguard/pool")

// ParseAddress parses a 0x-prefixed or bare 20-byte hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidAddress.Wrapf("%q is not a hex address", s)
	}
	return common.HexToAddress(s), nil
}

// PoolAddress derives the deterministic address of a pool from its id and sorted token pair.
func PoolAddress(poolID uint64, tokenA, tokenB string) common.Address {
	tokenA, tokenB = ammtypes.SortTokens(tokenA, tokenB)
	id := binary.BigEndian.AppendUint64(nil, poolID)
	hash := crypto.Keccak256(poolAddressSalt, id, []byte(tokenA), []byte{0}, []byte(tokenB))
	return common.BytesToAddress(hash[12:])
}

// PoolIdentifier is the limiter identifier a pool is protected under: its address.
func PoolIdentifier(pool ammtypes.Pool) string {
	return PoolAddress(pool.Id, pool.TokenA, pool.TokenB).Hex()
}

// IdentifierFor hashes a label and an address the way abi.encodePacked(label, address) does.
func IdentifierFor(label string, addr common.Address) string {
	return crypto.Keccak256Hash([]byte(label), addr.Bytes()).Hex()
}
