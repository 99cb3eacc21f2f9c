// Package cmd implements the reddit-mcp-server command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reddit-mcp-server/internal/application"
	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/infrastructure"
	"reddit-mcp-server/internal/logging"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	transport  string
	logLevel   string
}

// app is the wired server: configuration, the Reddit client and the tool router.
type app struct {
	config  *domain.Config
	client  *infrastructure.RedditClient
	router  *application.RequestRouter
	logFile io.Closer
}

func (a *app) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// NewRootCmd creates the root command. Without a subcommand it serves MCP.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "reddit-mcp-server",
		Short: "MCP server exposing Reddit read and search tools",
		Long: `reddit-mcp-server exposes Reddit subreddit listings, posts, comments, search,
user profiles and subreddit info as Model Context Protocol tools.

Credentials are read from the config file, a .env file, or the environment
(REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USER_AGENT).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&opts.transport, "transport", "", "Transport override: stdio or http")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newCallCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newSubmitCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

// load reads the configuration, sets up logging and wires the client and router.
func (o *options) load() (*app, error) {
	config, err := domain.LoadConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.transport != "" {
		config.Transport.Type = o.transport
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		config.Logging.Level = o.logLevel
	}

	a := &app{config: config}

	var out io.Writer = os.Stderr
	if config.Logging.File != "" {
		f, err := logging.OpenFile(config.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		out = io.MultiWriter(os.Stderr, f)
	}
	if err := logging.Configure(config.Logging.Level, config.Logging.Format, out); err != nil {
		a.Close()
		return nil, err
	}

	client, err := infrastructure.NewRedditClient(config.Reddit)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create reddit client: %w", err)
	}
	a.client = client
	a.router = application.NewRequestRouter(domain.NewResponseMapper(), application.NewToolHandlers(a.client)...)

	return a, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (MCP %s)\n", application.ServerName, application.ServerVersion, application.ProtocolVersion)
		},
	}
}
