package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/logger"
	"github.com/whistle-ai/whistle/internal/version"
)

var (
	// configPath to the configuration JSON file.
	configPath string
	// logLevel controls operational logging verbosity.
	logLevel string

	// rootCmd represents the base command for the whistle CLI.
	rootCmd = &cobra.Command{
		Use:   "whistle",
		Short: "WhistleAI: A lightweight, intelligent log monitoring tool.",
		Long: `WhistleAI watches journald for anomalies.

It follows system logs in real time or analyzes a past time range, classifies
entries with an LLM when one is configured (with a keyword heuristic as
fallback), filters noise through ignore rules, and reports anomalies on the
terminal and to Slack.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the whistle CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default is "+
			"$WHISTLE_CONFIG_DIR/"+config.DefaultConfigFilename+
			" or ~/.config/whistle/"+config.DefaultConfigFilename+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logger.Level().String(),
		"log level (debug, info, warn, error, fatal)")
}

// resolveConfigPath is the path configuration writes go to: the explicit
// --config value or the default location.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}

	return config.DefaultPath()
}
