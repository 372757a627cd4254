package main

import (
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage stored results",
	Long:  `List, inspect, and remove results saved by completed wizards.`,
}

var resultsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.ListResults(cmd.Context(), app.Results, cmd.OutOrStdout())
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <result-id>",
	Short: "Print one result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.ShowResult(cmd.Context(), app.Results, args[0], cmd.OutOrStdout())
	},
}

var resultsRmCmd = &cobra.Command{
	Use:   "rm <result-id>...",
	Short: "Remove one or more results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.RemoveResults(cmd.Context(), app.Results, args, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsLsCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsRmCmd)
}
