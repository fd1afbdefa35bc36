package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dexguard/app"
)

func TestParseGraceEnd(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	end, err := parseGraceEnd("48h", now)
	require.NoError(t, err)
	require.Equal(t, now.Add(172800*time.Second), end)

	end, err = parseGraceEnd("2024-01-03T00:00:00Z", now)
	require.NoError(t, err)
	require.True(t, end.Equal(now.Add(48*time.Hour)))

	_, err = parseGraceEnd("soon", now)
	require.Error(t, err)
}

func TestResolveIdentifier(t *testing.T) {
	newCmd := func(label string) *cobra.Command {
		c := &cobra.Command{}
		addLabelFlag(c)
		require.NoError(t, c.Flags().Set(FlagLabel, label))
		return c
	}
	addr := app.PoolAddress(1, "atom", "usdc")

	id, err := resolveIdentifier(newCmd(""), "pool-7")
	require.NoError(t, err)
	require.Equal(t, "pool-7", id)

	id, err = resolveIdentifier(newCmd(""), "0x102600eeaf5f1d186bd0167ec00068abe97eb4a6")
	require.NoError(t, err)
	require.Equal(t, addr.Hex(), id)

	id, err = resolveIdentifier(newCmd(app.LabelSwap), "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	require.Equal(t, "0xc07f783eebd210ccf7516a75cacd70e99d11881a617c4263a436819b093c5a80", id)

	_, err = resolveIdentifier(newCmd(app.LabelSwap), "pool-7")
	require.Error(t, err)
}
