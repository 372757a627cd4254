package main

import (
	"fmt"

	"github.com/aretw0/stepwise/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every flow for consistency",
	Long: `Loads every flow, compiles its recommendation tables and crawls it from
the entry step, reporting broken links, flows with no way to finish and
unreachable steps.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := cli.Validate(app.Engine, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All flows are valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
