package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSubmitCmd(opts *options) *cobra.Command {
	var subreddit, title, text string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a text post (requires REDDIT_USERNAME and REDDIT_PASSWORD)",
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

			post, err := a.client.SubmitTextPost(ctx, subreddit, title, text)
			if err != nil {
				return fmt.Errorf("submit failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s: %s\n", post.ID, post.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&subreddit, "subreddit", "", "Target subreddit (without r/)")
	cmd.Flags().StringVar(&title, "title", "", "Post title")
	cmd.Flags().StringVar(&text, "text", "", "Post body (Markdown)")
	_ = cmd.MarkFlagRequired("subreddit")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}
