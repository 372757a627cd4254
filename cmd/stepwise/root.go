package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stepwise/internal/cli"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Stepwise runs guided wellness check-ins",
	Long: `Stepwise walks you through short guided flows (mood check-ins, thought
records, self-care plans) one step at a time and suggests what might help.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./stepwise.yaml or $XDG_CONFIG_HOME/stepwise/stepwise.yaml)")
	flags.String("flows-source", "", "Where flows come from: builtin, yaml or loam")
	flags.String("flows-dir", "", "Directory holding flow definitions")
	flags.String("results-backend", "", "Result store: memory, file, redis or sqlite")
	flags.String("results-path", "", "Directory (file) or database path (sqlite) for results")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
}

// loadApp reads the configuration, applies flag overrides and wires the app.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	override := func(name string, target *string) {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
	override("flows-source", &cfg.Flows.Source)
	override("flows-dir", &cfg.Flows.Dir)
	override("results-backend", &cfg.Results.Backend)
	override("results-path", &cfg.Results.Path)
	override("log-level", &cfg.Log.Level)
	override("log-format", &cfg.Log.Format)

	// A directory without an explicit source means YAML files.
	if cmd.Flags().Changed("flows-dir") && !cmd.Flags().Changed("flows-source") && cfg.Flows.Source == config.SourceBuiltin {
		cfg.Flows.Source = config.SourceYAML
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cli.NewApp(cfg)
}
