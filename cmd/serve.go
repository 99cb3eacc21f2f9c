package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reddit-mcp-server/internal/application"
	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *options) error {
	a, err := opts.load()
	if err != nil {
		return err
	}
	defer a.Close()

	log := logging.Named("main")
	config := a.config

	var transport domain.Transport
	switch config.Transport.Type {
	case "stdio":
		transport = domain.NewStdioTransport()
	case "http":
		transport = domain.NewHTTPTransport(config.Transport.HTTP.Host, config.Transport.HTTP.Port)
	default:
		return fmt.Errorf("invalid transport type: %s", config.Transport.Type)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := application.NewServer(transport, a.router, config)
	if err := server.Start(ctx); err != nil {
		return err
	}

	log.WithField("transport", config.Transport.Type).Info("MCP server ready")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case <-server.Done():
		log.Info("transport closed")
	}

	if err := server.Close(); err != nil {
		log.WithError(err).Error("error during shutdown")
		return err
	}

	log.Info("server stopped")
	return nil
}
