package cmd

import (
	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/ui"
)

var (
	// LLM connection settings.
	llmBaseURL string
	llmAPIKey  string
	llmModel   string

	// slackWebhookURL receives anomaly alerts.
	slackWebhookURL string

	// Log stream selection.
	logKernelOnly   bool
	logServiceUnits []string

	// configCmd groups configuration management commands.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration.",
	}

	// configLLMCmd updates the LLM connection settings.
	configLLMCmd = &cobra.Command{
		Use:   "llm",
		Short: "Configure the LLM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return updateConfig(cmd, "LLM configuration updated.", func(cmd *cobra.Command, cfg *config.Config) {
				if cmd.Flags().Changed("base-url") {
					cfg.LLM.BaseURL = config.StringPtr(llmBaseURL)
				}

				if cmd.Flags().Changed("api-key") {
					cfg.LLM.APIKey = config.StringPtr(llmAPIKey)
				}

				if cmd.Flags().Changed("model") {
					cfg.LLM.Model = config.StringPtr(llmModel)
				}
			})
		},
	}

	// configAlertCmd updates the alerting settings.
	configAlertCmd = &cobra.Command{
		Use:   "alert",
		Short: "Configure alerting.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return updateConfig(cmd, "Alerting configuration updated.", func(cmd *cobra.Command, cfg *config.Config) {
				if cmd.Flags().Changed("slack") {
					cfg.Alert.Slack = config.StringPtr(slackWebhookURL)
				}
			})
		},
	}

	// configLogCmd updates which journald streams are watched.
	configLogCmd = &cobra.Command{
		Use:   "log",
		Short: "Configure logging.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return updateConfig(cmd, "Log configuration updated.", func(cmd *cobra.Command, cfg *config.Config) {
				if cmd.Flags().Changed("kernel-only") {
					cfg.Log.KernelOnly = logKernelOnly
				}

				if cmd.Flags().Changed("service-unit") {
					cfg.Log.ServiceUnits = logServiceUnits
				}
			})
		},
	}
)

// updateConfig loads the configuration, applies the mutation and saves it back.
func updateConfig(cmd *cobra.Command, doneMessage string, mutate func(*cobra.Command, *config.Config)) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mutate(cmd, cfg)

	if err = config.Save(resolveConfigPath(), cfg); err != nil {
		return err
	}

	ui.NewPrinter().Println(doneMessage)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	configLLMCmd.Flags().StringVar(&llmBaseURL, "base-url", "", "base URL of the LLM API")
	configLLMCmd.Flags().StringVar(&llmAPIKey, "api-key", "", "API key for the LLM API")
	configLLMCmd.Flags().StringVar(&llmModel, "model", "", "model to use for classification")

	configAlertCmd.Flags().StringVar(&slackWebhookURL, "slack", "", "Slack webhook URL")

	configLogCmd.Flags().BoolVar(&logKernelOnly, "kernel-only", false, "watch only kernel messages")
	configLogCmd.Flags().StringArrayVar(&logServiceUnits, "service-unit", nil,
		"systemd service unit to watch (can be specified multiple times)")

	configCmd.AddCommand(configLLMCmd, configAlertCmd, configLogCmd)
	rootCmd.AddCommand(configCmd)
}
