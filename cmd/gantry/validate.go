package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gantryhq/gantry/internal/config"
)

var validateCmd = &cli.Command{
	Name:    "validate",
	Aliases: []string{"lint"},
	Usage:   "Validate a configuration file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file",
		},
		&cli.BoolFlag{
			Name:    "tree",
			Aliases: []string{"t"},
			Usage:   "Show detailed tree view of the validated configuration",
		},
	},
	Suggest: true,
	Action:  validateAction,
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf(
				"config file path required (use the --config flag, or provide the config file as positional argument)",
			)
		}
		configPath = cmd.Args().Get(0)
	}

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("Configuration file %s is valid\n", configPath)

	if cmd.Bool("tree") {
		fmt.Println(cfg)
		return nil
	}

	fmt.Println(renderConfigSummary(configPath, cfg))
	return nil
}

// renderConfigSummary creates a formatted summary string for the configuration
func renderConfigSummary(path string, cfg *config.Config) string {
	var summary strings.Builder

	summary.WriteString("\nConfig Summary:\n")
	summary.WriteString(fmt.Sprintf("- Path: %s\n", path))
	summary.WriteString(fmt.Sprintf("- Version: %s\n", cfg.Version))
	summary.WriteString(fmt.Sprintf("- Listeners: %d\n", len(cfg.Listeners)))
	summary.WriteString(fmt.Sprintf("- Guards: %d\n", len(cfg.Guards)))
	summary.WriteString(fmt.Sprintf("- Apps: %d\n", len(cfg.Apps)))
	summary.WriteString(fmt.Sprintf("- Routes: %d\n", len(cfg.Routes)))
	summary.WriteString(fmt.Sprintf("- Catchers: %d\n", len(cfg.Catchers)))
	summary.WriteString("\nUse --tree for a more detailed view of the config.")

	return summary.String()
}
