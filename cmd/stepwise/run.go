package main

import (
	"os"

	"github.com/aretw0/stepwise/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <flow>",
	Short: "Walk a flow in the terminal",
	Long: `Opens a wizard for the flow and reads answers from standard input.
Type "next", "back", "skip" or "cancel" at any prompt, or <field>=<value>
when a step asks for more than one thing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tuiMode, _ := cmd.Flags().GetBool("tui")
		headless, _ := cmd.Flags().GetBool("headless")
		quiet, _ := cmd.Flags().GetBool("quiet")

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		_, err = cli.Run(ctx, app, cli.RunOptions{
			FlowID:   args[0],
			TUI:      tuiMode,
			Headless: headless,
			Quiet:    quiet,
		}, os.Stdin, os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("tui", false, "Run full screen (needs a terminal)")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, strict IO)")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner or the saved result ID")
}
