package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"cosmossdk.io/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/paw-chain/dexguard/app"
)

// appContext carries what PersistentPreRunE resolves for the subcommands.
type appContext struct {
	config   app.Config
	logger   log.Logger
	registry *prometheus.Registry
}

// openExchange opens the configured store. The caller closes the exchange.
func (c *appContext) openExchange(opts ...app.Option) (*app.Exchange, error) {
	db, err := app.OpenDB(c.config)
	if err != nil {
		return nil, err
	}
	opts = append([]app.Option{app.WithRegisterer(c.registry)}, opts...)
	ex, err := app.NewExchange(c.config, db, c.logger, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ex, nil
}

// withExchange opens the exchange, runs fn and closes it again.
func (c *appContext) withExchange(fn func(ex *app.Exchange) error) error {
	ex, err := c.openExchange()
	if err != nil {
		return err
	}
	defer ex.Close()
	return fn(ex)
}

// NewRootCmd creates the dexguardd root command.
func NewRootCmd() *cobra.Command {
	ac := &appContext{}

	rootCmd := &cobra.Command{
		Use:   "dexguardd",
		Short: "Constant-product exchange guarded by a rate-limiting circuit breaker",
		Long: `dexguardd runs constant-product liquidity pools behind a circuit breaker.

Every deposit, withdrawal and swap is checked against the breaker's pause flag,
its grace period and the rate limiter of the pool before it is applied.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ac.config = cfg
			ac.logger = logger
			ac.registry = prometheus.NewRegistry()
			return nil
		},
	}

	app.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		InitCmd(ac),
		PoolCmd(ac),
		BreakerCmd(ac),
		GenesisCmd(ac),
		ServeCmd(ac),
	)
	return rootCmd
}

// InitCmd writes the default config and initializes the store.
func InitCmd(ac *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default dexguard.toml and initialize the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := app.WriteDefaultConfig(ac.config.Home)
			if err != nil {
				return err
			}
			if err := ac.withExchange(func(*app.Exchange) error { return nil }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}
