package main

import (
	"fmt"

	"github.com/jpalmerr/feedwatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the monitor.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a feedwatch configuration file without starting the monitor.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  feedwatch validate -c config.yaml
  feedwatch validate --config /etc/feedwatch/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Stagger delay: %s\n", cfg.StaggerDelay.Duration())
	fmt.Printf("  Providers:     %d\n", len(cfg.Providers))
	for _, p := range cfg.Providers {
		fmt.Printf("    - %s (every %ds)\n", p.Name, p.PollIntervalSeconds)
	}

	return nil
}
