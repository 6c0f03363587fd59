package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes colloquy as MCP tools (chat, get_session, query_triples).

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")

		bot, err := openBot(cmd, nil)
		if err != nil {
			return err
		}
		defer bot.Close()
		logger := bot.Logger()

		srv := mcp.NewServer(bot.Manager(), bot.Triples(),
			mcp.WithVersion(strings.TrimSpace(colloquy.Version)),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			logger.Info("starting mcp server (stdio)")
			return srv.ServeStdio()
		case "sse":
			cfg := bot.Config().Server
			addr := cfg.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}
			baseURL := cfg.BaseURL
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeSSE(ctx, addr, baseURL); err != nil {
				return err
			}
			logger.Info("mcp server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8080", "Address to listen on (only for SSE)")
}
