package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"reddit-mcp-server/internal/application"
	"reddit-mcp-server/internal/domain"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool definitions as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Definitions never touch the client, so no credentials are needed
			router := application.NewRequestRouter(domain.NewResponseMapper(), application.NewToolHandlers(nil)...)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(router.ListAllTools())
		},
	}
}
