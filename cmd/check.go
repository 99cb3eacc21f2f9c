package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reddit-mcp-server/internal/domain"
)

func newCheckCmd(opts *options) *cobra.Command {
	var subreddit string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify Reddit credentials by fetching one hot post",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			posts, err := a.client.SubredditPosts(ctx, subreddit, domain.SortHot, "", 1)
			if err != nil {
				return fmt.Errorf("reddit connection check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reddit connection OK (user agent %q)\n", a.config.Reddit.UserAgent)
			if len(posts) > 0 {
				fmt.Fprintf(out, "Hot in r/%s: %s\n", subreddit, posts[0].Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subreddit, "subreddit", "python", "Subreddit to read from")
	return cmd
}
