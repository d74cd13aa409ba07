package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/service/installer"
	"github.com/whistle-ai/whistle/internal/version"
)

var (
	// repository is the "owner/name" GitHub repository to install from.
	repository string
	// apiBaseURL overrides the GitHub API endpoint.
	apiBaseURL string
	// releaseTag installs a specific tag instead of the latest release.
	releaseTag string
	// selectAsset asks for the release asset interactively.
	selectAsset bool
	// checkOnly compares versions without installing.
	checkOnly bool
	// stopRunning terminates running whistle processes before replacing the binary.
	stopRunning bool
	// logLevel controls operational logging verbosity.
	logLevel string

	// rootCmd represents the base command for installing whistle releases.
	rootCmd = &cobra.Command{
		Use:   "whistle-install [install-dir]",
		Short: "Download and install the latest whistle release",
		Long: `Fetches the latest release of whistle from GitHub, picks the asset built
for this platform and installs it as an executable.

The install directory is the positional argument when given, then the
INSTALL_DIR environment variable, then ` + installer.DefaultInstallDir + `.
When the directory is not writable, the installer re-executes itself under
sudo.`,
		Args: cobra.MaximumNArgs(1),
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

			// Use install directory argument if provided, otherwise rely on
			// the environment or the default.
			var installDir string
			if len(args) > 0 {
				installDir = args[0]
			}

			options := &installer.Options{
				InstallDir:  installDir,
				Repository:  repository,
				APIBaseURL:  apiBaseURL,
				Tag:         releaseTag,
				Select:      selectAsset,
				Check:       checkOnly,
				StopRunning: stopRunning,
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the whistle-install CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVar(&repository, "repo", installer.DefaultRepository,
		"GitHub repository to install from (owner/name)")
	rootCmd.Flags().StringVar(&apiBaseURL, "api-url", "",
		"GitHub API base URL, e.g. for GitHub Enterprise")
	rootCmd.Flags().StringVar(&releaseTag, "tag", "",
		"install the release with this tag instead of the latest")
	rootCmd.Flags().BoolVar(&selectAsset, "select", false,
		"pick the release asset interactively")
	rootCmd.Flags().BoolVar(&checkOnly, "check", false,
		"compare the installed version against the latest release without installing")
	rootCmd.Flags().BoolVar(&stopRunning, "stop-running", false,
		"terminate running whistle processes before replacing the binary")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logger.Level().String(),
		"log level (debug, info, warn, error, fatal)")
}
