package main

import (
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Hosts wizard sessions behind a JSON API, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts, err := serveOptions(cmd, app)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.Serve(ctx, app, opts)
		if sig := ctx.Signal(); sig != nil {
			app.Logger.Info("server stopped", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config, 8080)")
	serveCmd.Flags().Duration("idle-timeout", 0, "Close sessions idle for this long (default 30m)")
}

func serveOptions(cmd *cobra.Command, app *cli.App) (cli.ServeOptions, error) {
	opts := cli.ServeOptions{Port: app.Config.HTTP.Port}
	if cmd.Flags().Changed("port") {
		opts.Port, _ = cmd.Flags().GetInt("port")
	}
	idle, err := cmd.Flags().GetDuration("idle-timeout")
	if err != nil {
		return opts, err
	}
	opts.IdleTimeout = idle
	return opts, nil
}
