package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/alert"
	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/ui"
)

var (
	// testAlert also sends a test alert when set.
	testAlert bool

	// testCmd shows the effective configuration and optionally exercises
	// the alerting path end to end.
	testCmd = &cobra.Command{
		Use:   "test",
		Short: "Test the configuration.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			rendered, err := cfg.Render()
			if err != nil {
				return err
			}

			printer := ui.NewPrinter()
			printer.Println("Current configuration:")
			printer.Println(rendered)

			if !testAlert {
				return nil
			}

			return sendTestAlert(ctx, cfg, printer)
		},
	}
)

// sendTestAlert pushes a test message through the configured notifier.
func sendTestAlert(ctx context.Context, cfg *config.Config, printer *ui.Printer) error {
	notifier := alert.NewFromConfig(cfg)
	if notifier == nil {
		printer.Noticef("\nNo alert method configured. Set a webhook with: whistle config alert --slack <url>")
		return nil
	}

	if err := notifier.Send(ctx, "This is a test alert from whistle."); err != nil {
		return err
	}

	printer.Successf("\nSlack alert sent successfully.")

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	testCmd.Flags().BoolVar(&testAlert, "alert", false, "also send a test alert")

	rootCmd.AddCommand(testCmd)
}
