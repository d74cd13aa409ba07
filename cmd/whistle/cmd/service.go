package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/service/sysinstall"
)

var (
	// serviceCmd groups systemd service management commands.
	serviceCmd = &cobra.Command{
		Use:   "service",
		Short: "Manage the WhistleAI service.",
	}

	// serviceInstallCmd installs the systemd unit.
	serviceInstallCmd = &cobra.Command{
		Use:   "install",
		Short: "Install the WhistleAI systemd service.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return sysinstall.Install(ctx)
		},
	}

	// serviceUninstallCmd removes the systemd unit, keeping the configuration.
	serviceUninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the WhistleAI systemd service.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return sysinstall.Uninstall(ctx)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd)
	rootCmd.AddCommand(serviceCmd)
}
