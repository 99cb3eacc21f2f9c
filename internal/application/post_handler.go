package application

import (
	"context"
	"fmt"
	"strings"

	"reddit-mcp-server/internal/domain"
)

const (
	// redditDomain in a post_id means the caller passed a full URL.
	redditDomain     = "reddit.com"
	topCommentsLimit = 10
)

// fetchSubmission resolves a post_id that is either a bare id or a full URL.
func fetchSubmission(ctx context.Context, client domain.RedditClient, postID string, sort domain.CommentSort) (*domain.Submission, error) {
	if strings.Contains(postID, redditDomain) {
		return client.SubmissionByURL(ctx, postID, sort)
	}
	return client.Submission(ctx, postID, sort)
}

// PostDetailsHandler implements get_post_details.
type PostDetailsHandler struct {
	client domain.RedditClient
}

// NewPostDetailsHandler creates a new PostDetailsHandler instance.
func NewPostDetailsHandler(client domain.RedditClient) *PostDetailsHandler {
	return &PostDetailsHandler{client: client}
}

// Definition returns the tool definition.
func (h *PostDetailsHandler) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolGetPostDetails,
		Description: "Get detailed information about a specific Reddit post",
		InputSchema: objectSchema(map[string]domain.Property{
			"post_id":          stringProp("Reddit post ID or full URL"),
			"include_comments": boolProp("Whether to include top-level comments", false),
		}, "post_id"),
	}
}

type postDetailsArgs struct {
	PostID          string
	IncludeComments bool
}

// Handle renders one post with its full text and, optionally, its first
// top-level comments.
func (h *PostDetailsHandler) Handle(ctx context.Context, args map[string]interface{}) (string, error) {
	p := newArgParser(args, h.Definition().InputSchema)
	a := postDetailsArgs{
		PostID:          p.String("post_id"),
		IncludeComments: p.Bool("include_comments"),
	}
	if p.err != nil {
		return "", p.err
	}

	sub, err := fetchSubmission(ctx, h.client, a.PostID, domain.CommentSortBest)
	if err != nil {
		return "", domain.WrapToolError("fetching post details", err)
	}
	post := sub.Post

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", post.Title)
	fmt.Fprintf(&b, "**Author:** u/%s\n", post.AuthorName())
	fmt.Fprintf(&b, "**Subreddit:** r/%s\n", post.Subreddit)
	fmt.Fprintf(&b, "**Score:** %d (%d%% upvoted)\n", post.Score, post.UpvotePercent())
	fmt.Fprintf(&b, "**Comments:** %d\n", post.NumComments)
	fmt.Fprintf(&b, "**Created:** %s\n", formatTime(post.Created()))
	fmt.Fprintf(&b, "**URL:** %s\n", post.URL)
	fmt.Fprintf(&b, "**Permalink:** %s\n", post.PermalinkURL())
	if post.LinkFlairText != "" {
		fmt.Fprintf(&b, "**Flair:** %s\n", post.LinkFlairText)
	}
	fmt.Fprintf(&b, "**NSFW:** %s\n\n", yesNo(post.Over18))

	if post.Selftext != "" {
		fmt.Fprintf(&b, "### Post Content\n%s\n\n", post.Selftext)
	}

	if a.IncludeComments {
		b.WriteString("### Top Comments\n\n")
		shown := 0
		for _, comment := range sub.Comments.ReplaceMore() {
			if shown == topCommentsLimit {
				break
			}
			if comment.Body == "" {
				continue
			}
			shown++
			fmt.Fprintf(&b, "**%d.** u/%s (Score: %d)\n", shown, comment.AuthorName(), comment.Score)
			fmt.Fprintf(&b, "%s\n\n", truncate(comment.Body, commentBodyLimit))
		}
	}

	return b.String(), nil
}

// PostCommentsHandler implements get_post_comments.
type PostCommentsHandler struct {
	client domain.RedditClient
}

// NewPostCommentsHandler creates a new PostCommentsHandler instance.
func NewPostCommentsHandler(client domain.RedditClient) *PostCommentsHandler {
	return &PostCommentsHandler{client: client}
}

// Definition returns the tool definition.
func (h *PostCommentsHandler) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolGetPostComments,
		Description: "Get comments from a specific Reddit post",
		InputSchema: objectSchema(map[string]domain.Property{
			"post_id": stringProp("Reddit post ID or full URL"),
			"sort":    enumProp("Comment sort method: best, top, new, controversial", "best", commentSorts),
			"limit":   intProp("Number of comments to fetch (1-100)", 50, 1, 100),
		}, "post_id"),
	}
}

type postCommentsArgs struct {
	PostID string
	Sort   domain.CommentSort
	Limit  int
}

// Handle renders the top-level comments of a post, skipping deleted ones.
func (h *PostCommentsHandler) Handle(ctx context.Context, args map[string]interface{}) (string, error) {
	p := newArgParser(args, h.Definition().InputSchema)
	a := postCommentsArgs{
		PostID: p.String("post_id"),
		Sort:   domain.CommentSort(p.Enum("sort")),
		Limit:  p.Int("limit"),
	}
	if p.err != nil {
		return "", p.err
	}

	sub, err := fetchSubmission(ctx, h.client, a.PostID, a.Sort)
	if err != nil {
		return "", domain.WrapToolError("fetching comments", err)
	}
	post := sub.Post

	var b strings.Builder
	fmt.Fprintf(&b, "## Comments for: %s\n\n", post.Title)
	fmt.Fprintf(&b, "**Post by:** u/%s in r/%s\n", post.AuthorName(), post.Subreddit)
	fmt.Fprintf(&b, "**Total Comments:** %d\n", post.NumComments)
	fmt.Fprintf(&b, "**Sorted by:** %s\n\n", a.Sort)

	count := 0
	for _, comment := range sub.Comments.ReplaceMore() {
		if count >= a.Limit {
			break
		}
		if comment.Deleted() {
			continue
		}
		count++
		fmt.Fprintf(&b, "### Comment %d\n", count)
		fmt.Fprintf(&b, "**Author:** u/%s\n", comment.AuthorName())
		fmt.Fprintf(&b, "**Score:** %d\n", comment.Score)
		fmt.Fprintf(&b, "**Content:** %s\n\n", comment.Body)
	}

	return b.String(), nil
}
