package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paw-chain/dexguard/app"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

// PoolCmd groups the pool commands.
func PoolCmd(ac *appContext) *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Create, trade against and inspect liquidity pools",
	}
	poolCmd.AddCommand(
		CmdCreatePool(ac),
		CmdSwap(ac),
		CmdAddLiquidity(ac),
		CmdRemoveLiquidity(ac),
		CmdQuote(ac),
		CmdShowPool(ac),
		CmdListPools(ac),
		CmdShares(ac),
	)
	return poolCmd
}

// CmdCreatePool creates a pool seeded with both tokens.
func CmdCreatePool(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [token-a] [amount-a] [token-b] [amount-b]",
		Short: "Create a new liquidity pool",
		Long: `Create a new liquidity pool with an initial deposit of both tokens.
Amounts are decimal token units.

Example:
  $ dexguardd pool create atom 100 usdc 1000 --from 0x1111111111111111111111111111111111111111`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			amountA, err := parseAmount("amount-a", args[1])
			if err != nil {
				return err
			}
			amountB, err := parseAmount("amount-b", args[3])
			if err != nil {
				return err
			}
			feeBps, err := cmd.Flags().GetUint32(FlagFeeBps)
			if err != nil {
				return err
			}

			return ac.withExchange(func(ex *app.Exchange) error {
				receipt, err := ex.CreatePool(cmd.Context(), from, args[0], args[2], amountA, amountB, feeBps)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), receipt)
			})
		},
	}
	addFromFlag(cmd)
	cmd.Flags().Uint32(FlagFeeBps, 0, "swap fee in basis points (0 uses amm.fee_bps)")
	return cmd
}

// CmdSwap swaps against a pool.
func CmdSwap(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap [pool-id] [token-in] [amount-in] [token-out]",
		Short: "Swap tokens against a pool",
		Long: `Swap amount-in of token-in for token-out.

Example:
  $ dexguardd pool swap 1 atom 1 usdc --min-out 9.8 --from 0x1111111111111111111111111111111111111111`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			amountIn, err := parseAmount("amount-in", args[2])
			if err != nil {
				return err
			}
			minOut, err := amountFlag(cmd, FlagMinOut)
			if err != nil {
				return err
			}

			return ac.withExchange(func(ex *app.Exchange) error {
				receipt, err := ex.Swap(cmd.Context(), from, poolID, args[1], args[3], amountIn, minOut)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), receipt)
			})
		},
	}
	addFromFlag(cmd)
	cmd.Flags().String(FlagMinOut, "", "minimum amount out")
	return cmd
}

// CmdAddLiquidity deposits into a pool.
func CmdAddLiquidity(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [pool-id] [amount-a] [amount-b]",
		Short: "Add liquidity to an existing pool",
		Long: `Add liquidity by depositing both tokens in the pool's current ratio.

Example:
  $ dexguardd pool add 1 10 100 --from 0x1111111111111111111111111111111111111111`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			amountA, err := parseAmount("amount-a", args[1])
			if err != nil {
				return err
			}
			amountB, err := parseAmount("amount-b", args[2])
			if err != nil {
				return err
			}

			return ac.withExchange(func(ex *app.Exchange) error {
				receipt, err := ex.AddLiquidity(cmd.Context(), from, poolID, amountA, amountB)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), receipt)
			})
		},
	}
	addFromFlag(cmd)
	return cmd
}

// CmdRemoveLiquidity withdraws from a pool.
func CmdRemoveLiquidity(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [pool-id] [shares]",
		Short: "Remove liquidity from a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			shares, err := parseAmount("shares", args[1])
			if err != nil {
				return err
			}
			minA, err := amountFlag(cmd, FlagMinA)
			if err != nil {
				return err
			}
			minB, err := amountFlag(cmd, FlagMinB)
			if err != nil {
				return err
			}

			return ac.withExchange(func(ex *app.Exchange) error {
				receipt, err := ex.RemoveLiquidity(cmd.Context(), from, poolID, shares, minA, minB)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), receipt)
			})
		},
	}
	addFromFlag(cmd)
	cmd.Flags().String(FlagMinA, "", "minimum amount of token a")
	cmd.Flags().String(FlagMinB, "", "minimum amount of token b")
	return cmd
}

// CmdQuote prices a swap without executing it.
func CmdQuote(ac *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quote [pool-id] [token-in] [amount-in] [token-out]",
		Short: "Quote a swap: output, fee, spot and execution price, price impact",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			amountIn, err := parseAmount("amount-in", args[2])
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				quote, err := ex.QuoteSwap(poolID, args[1], args[3], amountIn)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), quote)
			})
		},
	}
}

// CmdShowPool prints one pool.
func CmdShowPool(ac *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [pool-id]",
		Short: "Show a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				pool, err := ex.Pool(poolID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), struct {
					Address string `json:"address"`
					Pool    any    `json:"pool"`
				}{app.PoolIdentifier(pool), pool})
			})
		},
	}
}

// CmdListPools prints every pool.
func CmdListPools(ac *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ac.withExchange(func(ex *app.Exchange) error {
				pools, err := ex.Pools()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pools)
			})
		},
	}
}

// CmdShares prints the shares an address holds in a pool.
func CmdShares(ac *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shares [pool-id] [address]",
		Short: "Show the liquidity shares an address holds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			addr, err := app.ParseAddress(args[1])
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				shares, err := ex.Shares(poolID, addr.Hex())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"address": addr.Hex(),
					"shares":  fixedpoint.Format(shares),
				})
			})
		},
	}
}
