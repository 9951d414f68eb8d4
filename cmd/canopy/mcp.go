package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the stored sessions as MCP tools so AI agents can list, inspect,
diff and graph them.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		srv := mcp.NewServer(env.backend.SessionManager(env.logger), canopy.Version, mcp.WithLogger(env.logger))

		switch transport {
		case "stdio":
			env.logger.Info("Starting Canopy MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(cmd.Context(), env.logger)
			defer sigCtx.Cancel()

			env.logger.Info("Starting Canopy MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mcp server: %w", err)
			}
			env.logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q: supported stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
