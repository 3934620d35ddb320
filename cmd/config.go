package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samzong/aicommiter/internal/config"
	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage aicommiter configuration",
	}

	configSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (" + strings.Join(config.Keys(), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			return setConfigValue(args[0], args[1])
		},
	}

	configGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			printConfig(cfg)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

func setConfigValue(key, value string) error {
	if !slices.Contains(config.Keys(), key) {
		return fmt.Errorf("unknown configuration key %q (valid keys: %s); use `aicommiter set-key` for the API key",
			key, strings.Join(config.Keys(), ", "))
	}

	switch key {
	case "model":
		if !config.IsValidModel(value) {
			return fmt.Errorf("invalid model: %q", value)
		}
		config.SetConfigValue(key, value)
	case "timeout":
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds < 0 {
			return fmt.Errorf("invalid timeout %q: must be a non-negative number of seconds", value)
		}
		config.SetConfigValue(key, seconds)
	default:
		config.SetConfigValue(key, value)
	}

	if err := config.SaveConfig(); err != nil {
		return err
	}

	fmt.Fprintf(outWriter(), "Set %s to: %s\n", key, value)
	if key == "model" {
		fmt.Fprintln(outWriter(), "Tip: any model name works, suggested models are:")
		for _, m := range config.GetSuggestedModels() {
			fmt.Fprintf(outWriter(), "- %s\n", m)
		}
	}
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Fprintln(outWriter(), "Current configuration:")
	fmt.Fprintf(outWriter(), "Model: %s\n", cfg.Model)
	if cfg.APIKey != "" {
		fmt.Fprintln(outWriter(), "API key: ********")
	} else {
		fmt.Fprintln(outWriter(), "API key: <not set>")
	}
	fmt.Fprintf(outWriter(), "API base URL: %s\n", cfg.APIBase)
	if cfg.Timeout > 0 {
		fmt.Fprintf(outWriter(), "Timeout: %ds\n", cfg.Timeout)
	} else {
		fmt.Fprintln(outWriter(), "Timeout: none")
	}
}
