package cmd

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/paw-chain/dexguard/app"
	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// BreakerCmd groups the circuit breaker commands.
func BreakerCmd(ac *appContext) *cobra.Command {
	breakerCmd := &cobra.Command{
		Use:   "breaker",
		Short: "Inspect and administer the circuit breaker",
	}
	breakerCmd.AddCommand(
		CmdBreakerStatus(ac),
		CmdLimiterStatus(ac),
		CmdSetOperational(ac, "pause", false),
		CmdSetOperational(ac, "resume", true),
		CmdStartGracePeriod(ac),
		CmdEndGracePeriod(ac),
		CmdProtect(ac),
		CmdUnprotect(ac),
		CmdOverride(ac),
		CmdRevokeOverride(ac),
		CmdSetLimit(ac),
	)
	return breakerCmd
}

// resolveIdentifier turns an argument into a limiter identifier. With --label
// the argument must be an address and is hashed with the label. Bare
// addresses are checksummed so they match pool identifiers.
func resolveIdentifier(cmd *cobra.Command, arg string) (string, error) {
	label, err := cmd.Flags().GetString(FlagLabel)
	if err != nil {
		return "", err
	}
	if label != "" {
		addr, err := app.ParseAddress(arg)
		if err != nil {
			return "", err
		}
		return app.IdentifierFor(label, addr), nil
	}
	if len(arg) == 2+2*common.AddressLength && common.IsHexAddress(arg) {
		return common.HexToAddress(arg).Hex(), nil
	}
	return arg, nil
}

func resolveIdentifiers(cmd *cobra.Command, args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := resolveIdentifier(cmd, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func addLabelFlag(cmd *cobra.Command) {
	cmd.Flags().String(FlagLabel, "", fmt.Sprintf("hash each address with this label (e.g. %s)", app.LabelSwap))
}

// parseGraceEnd accepts an RFC3339 timestamp or a duration from now.
func parseGraceEnd(arg string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(arg); err == nil {
		return now.Add(d), nil
	}
	end, err := time.Parse(time.RFC3339, arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid grace period end %q: want a duration or RFC3339 time", arg)
	}
	return end.UTC(), nil
}

// CmdBreakerStatus prints the breaker snapshot.
func CmdBreakerStatus(ac *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pause flag, grace period and protected limiters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ac.withExchange(func(ex *app.Exchange) error {
				status, err := ex.BreakerStatus()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	}
}

// CmdLimiterStatus prints one limiter.
func CmdLimiterStatus(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limiter [identifier]",
		Short: "Show the rate limiter of an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveIdentifier(cmd, args[0])
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				status, err := ex.LimiterStatus(id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	}
	addLabelFlag(cmd)
	return cmd
}

// CmdSetOperational pauses or resumes every guarded operation.
func CmdSetOperational(ac *appContext, use string, operational bool) *cobra.Command {
	short := "Pause every deposit, withdrawal and swap"
	if operational {
		short = "Resume normal operation"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				return ex.SetOperationalStatus(cmd.Context(), from, operational)
			})
		},
	}
	addFromFlag(cmd)
	return cmd
}

// CmdStartGracePeriod opens a withdrawal-only grace period.
func CmdStartGracePeriod(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grace [end]",
		Short: "Allow only withdrawals until end (a duration such as 48h, or an RFC3339 time)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			end, err := parseGraceEnd(args[0], app.SystemClock{}.Now())
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				if err := ex.StartGracePeriod(cmd.Context(), from, end); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "grace period ends %s\n", end.Format(time.RFC3339))
				return nil
			})
		},
	}
	addFromFlag(cmd)
	return cmd
}

// CmdEndGracePeriod ends the grace period early.
func CmdEndGracePeriod(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "end-grace",
		Short: "End the grace period now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				return ex.EndGracePeriod(cmd.Context(), from)
			})
		},
	}
	addFromFlag(cmd)
	return cmd
}

// CmdProtect adds identifiers to the protected set.
func CmdProtect(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protect [identifier...]",
		Short: "Rate limit the given identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			ids, err := resolveIdentifiers(cmd, args)
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				return ex.AddProtectedContracts(cmd.Context(), from, ids...)
			})
		},
	}
	addFromFlag(cmd)
	addLabelFlag(cmd)
	return cmd
}

// CmdUnprotect removes identifiers from the protected set.
func CmdUnprotect(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unprotect [identifier...]",
		Short: "Stop rate limiting the given identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			ids, err := resolveIdentifiers(cmd, args)
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				return ex.RemoveProtectedContracts(cmd.Context(), from, ids...)
			})
		},
	}
	addFromFlag(cmd)
	addLabelFlag(cmd)
	return cmd
}

// CmdOverride releases a triggered limiter until revoked.
func CmdOverride(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override [identifier]",
		Short: "Release a rate limit and keep it released until revoke-override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			id, err := resolveIdentifier(cmd, args[0])
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				return ex.OverrideRateLimit(cmd.Context(), from, id)
			})
		},
	}
	addFromFlag(cmd)
	addLabelFlag(cmd)
	return cmd
}

// CmdRevokeOverride restores rate limiting after an override.
func CmdRevokeOverride(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke-override [identifier]",
		Short: "Restore rate limiting after an override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			id, err := resolveIdentifier(cmd, args[0])
			if err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				return ex.RevokeOverride(cmd.Context(), from, id)
			})
		},
	}
	addFromFlag(cmd)
	addLabelFlag(cmd)
	return cmd
}

// CmdSetLimit replaces one limiter's threshold, window and cooldown.
func CmdSetLimit(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-limit [identifier]",
		Short: "Set the threshold, window and cooldown of a limiter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := fromAddress(cmd)
			if err != nil {
				return err
			}
			id, err := resolveIdentifier(cmd, args[0])
			if err != nil {
				return err
			}
			threshold, err := amountFlag(cmd, FlagThreshold)
			if err != nil {
				return err
			}
			window, err := cmd.Flags().GetDuration(FlagWindow)
			if err != nil {
				return err
			}
			cooldown, err := cmd.Flags().GetDuration(FlagCooldown)
			if err != nil {
				return err
			}
			cfg := ratelimittypes.Config{Threshold: threshold, Window: window, Cooldown: cooldown}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return ac.withExchange(func(ex *app.Exchange) error {
				return ex.SetLimiterConfig(cmd.Context(), from, id, cfg)
			})
		},
	}
	addFromFlag(cmd)
	addLabelFlag(cmd)
	cmd.Flags().String(FlagThreshold, "", "token amount per window above which the limiter triggers")
	cmd.Flags().Duration(FlagWindow, time.Minute, "accumulation window")
	cmd.Flags().Duration(FlagCooldown, time.Hour, "how long a triggered limiter blocks")
	_ = cmd.MarkFlagRequired(FlagThreshold)
	return cmd
}
