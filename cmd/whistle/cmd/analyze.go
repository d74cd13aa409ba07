package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/service/analyzer"
)

var (
	// analyzeSince marks the start of the analyzed time range.
	analyzeSince string

	// analyzeCmd runs a one-shot anomaly scan over past journal entries.
	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Analyze logs since a given time.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &analyzer.Options{
				ConfigPath: configPath,
				Since:      analyzeSince,
			}

			return analyzer.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	analyzeCmd.Flags().StringVar(&analyzeSince, "since", analyzer.DefaultSince,
		`start time for log analysis (e.g. "1 hour ago", "2023-10-27 10:00:00")`)

	rootCmd.AddCommand(analyzeCmd)
}
