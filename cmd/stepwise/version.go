package main

import (
	"fmt"

	"github.com/aretw0/stepwise"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stepwise",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stepwise version %s\n", stepwise.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
