package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/service/packager"
	"github.com/whistle-ai/whistle/internal/version"
)

var (
	// outputDir is where release assets are staged.
	outputDir string
	// releaseVersion overrides the build version baked into the binary.
	releaseVersion string
	// logLevel controls operational logging verbosity.
	logLevel string

	// rootCmd represents the base command for staging release assets.
	rootCmd = &cobra.Command{
		Use:   "whistle-package <binary>...",
		Short: "Stage whistle release assets for publication",
		Long: `Takes built binaries named "<goos>-<goarch>-whistle" and stages everything
a GitHub release needs: the platform binaries, tar.gz archives, a sha256sum
checksum manifest and a YAML release description.`,
		Args: cobra.MinimumNArgs(1),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				OutputDir: outputDir,
				Version:   releaseVersion,
				Binaries:  args,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the whistle-package CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", packager.DefaultOutputDir,
		"directory to stage release assets into")
	rootCmd.Flags().StringVar(&releaseVersion, "version", "",
		"release version (defaults to the build version)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logger.Level().String(),
		"log level (debug, info, warn, error, fatal)")
}
