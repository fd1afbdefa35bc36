package cmd

import (
	"fmt"
	"strconv"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/paw-chain/dexguard/app"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

const (
	FlagFrom       = "from"
	FlagFeeBps     = "fee-bps"
	FlagMinOut     = "min-out"
	FlagMinA       = "min-a"
	FlagMinB       = "min-b"
	FlagLabel      = "label"
	FlagThreshold  = "threshold"
	FlagWindow     = "window"
	FlagCooldown   = "cooldown"
	FlagInterval   = "interval"
	FlagOutputFile = "output"
)

func addFromFlag(cmd *cobra.Command) {
	cmd.Flags().String(FlagFrom, "", "hex address the operation is sent from")
	_ = cmd.MarkFlagRequired(FlagFrom)
}

// fromAddress returns the checksummed --from address.
func fromAddress(cmd *cobra.Command) (string, error) {
	raw, err := cmd.Flags().GetString(FlagFrom)
	if err != nil {
		return "", err
	}
	addr, err := app.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

func parsePoolID(arg string) (uint64, error) {
	poolID, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pool ID: %w", err)
	}
	return poolID, nil
}

// parseAmount reads a decimal token amount such as "1.5".
func parseAmount(name, arg string) (math.Int, error) {
	amount, err := fixedpoint.Parse(arg)
	if err != nil {
		return math.Int{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return amount, nil
}

// amountFlag reads an optional decimal amount flag; unset means zero.
func amountFlag(cmd *cobra.Command, name string) (math.Int, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return math.Int{}, err
	}
	if raw == "" {
		return math.ZeroInt(), nil
	}
	return parseAmount(name, raw)
}
