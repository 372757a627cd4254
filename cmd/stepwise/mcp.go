package main

import (
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes flows to AI agents as MCP tools: list_flows, open_wizard,
send_event, view_wizard and cancel_wizard. The flow catalog is also
published as the stepwise://flows resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")

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

		return cli.ServeMCP(ctx, app, transport, opts)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().IntP("port", "p", 0, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Duration("idle-timeout", 0, "Close sessions idle for this long (default 30m)")
}
