package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/service/monitor"
)

// monitorCmd follows journald and reports anomalies as they appear.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor logs in real-time and trigger alerts.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &monitor.Options{
			ConfigPath: configPath,
		}

		return monitor.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(monitorCmd)
}
