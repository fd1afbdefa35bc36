package app_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dexguard/app"
	ammtypes "github.com/paw-chain/dexguard/x/amm/types"
	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
)

func TestParseAddress(t *testing.T) {
	addr, err := app.ParseAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), addr)

	_, err = app.ParseAddress("1111111111111111111111111111111111111111")
	require.NoError(t, err)

	for _, bad := range []string{"", "0x11", "creator", "0xzz11111111111111111111111111111111111111"} {
		_, err := app.ParseAddress(bad)
		require.ErrorIs(t, err, app.ErrInvalidAddress, bad)
	}
}

func TestIdentifierFor(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	// keccak256(abi.encodePacked("DEX_SWAP", addr))
	require.Equal(t,
		"0xc07f783eebd210ccf7516a75cacd70e99d11881a617c4263a436819b093c5a80",
		app.IdentifierFor(app.LabelSwap, addr),
	)
	require.NotEqual(t, app.IdentifierFor(app.LabelSwap, addr), app.IdentifierFor(app.LabelDeposit, addr))
}

func TestPoolAddress(t *testing.T) {
	addr := app.PoolAddress(1, "atom", "usdc")
	require.Equal(t, "0x102600Eeaf5F1d186bD0167ec00068AbE97eb4A6", addr.Hex())
	require.Equal(t, addr, app.PoolAddress(1, "usdc", "atom"))
	require.NotEqual(t, addr, app.PoolAddress(2, "atom", "usdc"))

	pool := ammtypes.NewPool(1, "atom", "usdc", 30, "creator")
	require.Equal(t, addr.Hex(), app.PoolIdentifier(pool))
}

func TestAuthorizer(t *testing.T) {
	adminAddr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	auth := app.NewAuthorizer([]common.Address{adminAddr})

	capability, err := auth.Authorize("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	require.Equal(t, adminAddr.Hex(), capability.Holder())
	require.NoError(t, capability.Validate())

	_, err = auth.Authorize("0x2222222222222222222222222222222222222222")
	require.ErrorIs(t, err, breakertypes.ErrUnauthorized)
	_, err = auth.Authorize("not-hex")
	require.ErrorIs(t, err, breakertypes.ErrUnauthorized)
}
