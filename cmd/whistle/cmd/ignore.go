package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/ui"
)

// errNoRuleChosen indicates that a rule to remove was neither named nor selectable.
var errNoRuleChosen = errors.New("provide a rule name or run interactively to pick one")

var (
	// ignoreComment annotates a newly added rule.
	ignoreComment string

	// ignoreCmd groups ignore list management commands.
	ignoreCmd = &cobra.Command{
		Use:   "ignore",
		Short: "Manage ignore list.",
	}

	// ignoreListCmd prints all ignore rules.
	ignoreListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all ignore rules.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			printer := ui.NewPrinter()

			if len(cfg.Ignore) == 0 {
				printer.Println("No ignore rules defined.")
				return nil
			}

			for _, rule := range cfg.Ignore {
				comment := ""
				if rule.Comment != "" {
					comment = fmt.Sprintf(" (%s)", rule.Comment)
				}

				printer.Printf("- %s: '%s'%s\n", rule.Name, rule.Regex, comment)
			}

			return nil
		},
	}

	// ignoreAddCmd adds a new ignore rule.
	ignoreAddCmd = &cobra.Command{
		Use:   "add <name> <regex>",
		Short: "Add a new ignore rule.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Name and regex.
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			rule := config.Rule{
				Name:    args[0],
				Regex:   args[1],
				Comment: ignoreComment,
			}

			if err = cfg.AddIgnoreRule(rule); err != nil {
				return err
			}

			if err = config.Save(resolveConfigPath(), cfg); err != nil {
				return err
			}

			ui.NewPrinter().Printf("Ignore rule '%s' added.\n", rule.Name)

			return nil
		},
	}

	// ignoreRemoveCmd deletes an ignore rule, prompting for one when no name
	// is given on an interactive terminal.
	ignoreRemoveCmd = &cobra.Command{
		Use:   "remove [name]",
		Short: "Remove an ignore rule.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			name, err := chooseRuleName(cfg, args)
			if err != nil {
				return err
			}

			if err = cfg.RemoveIgnoreRule(name); err != nil {
				return err
			}

			if err = config.Save(resolveConfigPath(), cfg); err != nil {
				return err
			}

			ui.NewPrinter().Printf("Ignore rule '%s' removed.\n", name)

			return nil
		},
	}
)

// chooseRuleName resolves which rule to remove: the explicit argument, or an
// interactive pick over the configured rules.
func chooseRuleName(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	if len(cfg.Ignore) == 0 || !ui.IsInteractive() {
		return "", errNoRuleChosen
	}

	names := make([]string, 0, len(cfg.Ignore))
	for _, rule := range cfg.Ignore {
		names = append(names, rule.Name)
	}

	index, err := ui.Select("Select an ignore rule to remove", names)
	if err != nil {
		return "", fmt.Errorf("select rule: %w", err)
	}

	return names[index], nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	ignoreAddCmd.Flags().StringVar(&ignoreComment, "comment", "", "a comment for the ignore rule")

	ignoreCmd.AddCommand(ignoreListCmd, ignoreAddCmd, ignoreRemoveCmd)
	rootCmd.AddCommand(ignoreCmd)
}
