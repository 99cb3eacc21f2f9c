package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reddit-mcp-server/internal/domain"
)

func newCallCmd(opts *options) *cobra.Command {
	var (
		pairs   []string
		rawJSON string
	)

	cmd := &cobra.Command{
		Use:   "call TOOL",
		Short: "Invoke one tool and print its text result",
		Example: `  reddit-mcp-server call get_subreddit_posts --arg subreddit=golang --arg limit=5
  reddit-mcp-server call search_reddit --json '{"query":"generics","subreddit":"golang"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments, err := parseCallArguments(pairs, rawJSON)
			if err != nil {
				return err
			}

			a, err := opts.load()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			resp, err := a.router.Route(ctx, &domain.ToolRequest{Name: args[0], Arguments: arguments})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			if resp.IsError {
				return fmt.Errorf("tool %s failed", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&pairs, "arg", nil, "Tool argument as key=value (repeatable)")
	cmd.Flags().StringVar(&rawJSON, "json", "", "Tool arguments as a JSON object")

	return cmd
}

// parseCallArguments merges a JSON object with key=value pairs; pairs win.
// Pair values stay strings; the tool handlers coerce numbers and booleans.
func parseCallArguments(pairs []string, rawJSON string) (map[string]interface{}, error) {
	arguments := make(map[string]interface{})

	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &arguments); err != nil {
			return nil, fmt.Errorf("invalid --json arguments: %w", err)
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q: expected key=value", pair)
		}
		arguments[key] = value
	}

	return arguments, nil
}
