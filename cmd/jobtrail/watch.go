package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobtrail/internal/ingest"
	"jobtrail/internal/mailbox/gmail"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Fetch on a schedule until interrupted",
	Long: `Watch runs a fetch immediately and then every --interval. When METRICS_ADDR
is set it serves Prometheus metrics on /metrics at that address.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{logToStderr: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchInterval <= 0 {
			return errors.New("--interval must be positive")
		}
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if cfg.Metrics.Addr != "" {
			srv := metricsServer(cfg.Metrics.Addr, reg)
			go func() {
				logger.Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server stopped", zap.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		prompt := gmail.TerminalPrompter{In: os.Stdin, Out: os.Stderr}
		runner, err := a.runner(ctx, prompt, reg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		err = runner.Watch(ctx, cfg.Gmail.Lookback(), watchInterval, func(rep ingest.Report, err error) {
			stamp := time.Now().Format("2006-01-02 15:04:05")
			if err != nil {
				fmt.Fprintf(out, "%s fetch failed: %v\n", stamp, err)
				return
			}
			fmt.Fprintf(out, "%s %s\n", stamp, rep.Summary())
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func metricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 15*time.Minute, "Time between fetches")
}
