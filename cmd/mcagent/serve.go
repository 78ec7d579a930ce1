package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/mcagent/internal/httpapi"
	"github.com/HendryAvila/mcagent/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdin/stdout. Add it to your AI tool's MCP config:

  {
    "mcpServers": {
      "mcagent": {
        "command": "mcagent",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			s, cleanup, err := server.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			logger.Info("serving MCP over stdio", "version", server.Version)
			return mcpserver.ServeStdio(s)
		},
	}
}

func (a *app) httpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Start the local HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			svc, cleanup, err := server.NewService(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating service: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpapi.Version = server.Version
			return httpapi.Serve(ctx, httpapi.New(svc, logger), cfg.HTTP.Addr, logger)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:18080)")
	_ = a.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
