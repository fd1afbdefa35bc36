package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/paw-chain/dexguard/app"
)

// ServeCmd keeps the exchange open and serves /metrics until interrupted.
func ServeCmd(ac *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the exchange state and serve Prometheus metrics",
		Long: `Serve Prometheus metrics on metrics.listen (or --metrics-addr) unless
metrics.enabled is false.

The gauges are refreshed from the store and the pool invariants are checked
every --interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interval, err := cmd.Flags().GetDuration(FlagInterval)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("--%s must be positive", FlagInterval)
			}

			ac.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			ex, err := ac.openExchange()
			if err != nil {
				return err
			}
			defer ex.Close()

			if ac.config.MetricsEnabled {
				server := StartPrometheusServer(ac.config.MetricsListen, ac.registry, ac.logger)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Shutdown(shutdownCtx)
				}()
			} else {
				ac.logger.Info("metrics disabled, checking invariants only")
			}

			return runRefreshLoop(cmd.Context(), ex, interval, ac.logger)
		},
	}
	cmd.Flags().Duration(FlagInterval, 15*time.Second, "how often gauges are refreshed and invariants checked")
	return cmd
}

// StartPrometheusServer serves the registry on addr in a background goroutine.
func StartPrometheusServer(addr string, gatherer prometheus.Gatherer, logger log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("prometheus server error", "error", err)
		}
	}()
	return server
}

func runRefreshLoop(ctx context.Context, ex *app.Exchange, interval time.Duration, logger log.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ex.RefreshMetrics(); err != nil {
			return err
		}
		if err := ex.CheckInvariants(); err != nil {
			logger.Error("invariant broken", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
