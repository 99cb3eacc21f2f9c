package application

import (
	"context"
	"fmt"
	"strings"

	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

const recentPostsLimit = 10

// RecentPostsUnavailable replaces the recent posts section when it cannot be fetched.
const RecentPostsUnavailable = "Recent posts not available"

// UserProfileHandler implements get_user_profile.
type UserProfileHandler struct {
	client domain.RedditClient
	logger *logging.StructuredLogger
}

// NewUserProfileHandler creates a new UserProfileHandler instance.
func NewUserProfileHandler(client domain.RedditClient) *UserProfileHandler {
	return &UserProfileHandler{
		client: client,
		logger: logging.NewStructuredLogger(ToolGetUserProfile),
	}
}

// Definition returns the tool definition.
func (h *UserProfileHandler) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolGetUserProfile,
		Description: "Get public information about a Reddit user",
		InputSchema: objectSchema(map[string]domain.Property{
			"username": stringProp("Reddit username (without u/)"),
		}, "username"),
	}
}

// Handle renders a user's profile and their newest submissions. A failure
// fetching the submissions does not fail the profile.
func (h *UserProfileHandler) Handle(ctx context.Context, args map[string]interface{}) (string, error) {
	p := newArgParser(args, h.Definition().InputSchema)
	username := trimPrefixFold(p.String("username"), "/u/", "u/")
	if p.err != nil {
		return "", p.err
	}

	user, err := h.client.Redditor(ctx, username)
	if err != nil {
		return "", domain.WrapToolError("fetching user profile", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## User Profile: u/%s\n\n", user.Name)
	fmt.Fprintf(&b, "**Comment Karma:** %s\n", formatCount(int64(user.CommentKarma)))
	fmt.Fprintf(&b, "**Link Karma:** %s\n", formatCount(int64(user.LinkKarma)))
	fmt.Fprintf(&b, "**Account Created:** %s\n", formatTime(user.Created()))
	fmt.Fprintf(&b, "**Has Verified Email:** %s\n", yesNo(user.HasVerifiedEmail))
	fmt.Fprintf(&b, "**Is Employee:** %s\n", yesNo(user.IsEmployee))
	fmt.Fprintf(&b, "**Is Gold:** %s\n", yesNo(user.IsGold))
	fmt.Fprintf(&b, "**Is Mod:** %s\n", yesNo(user.IsMod))
	if user.ProfileDescription != "" {
		fmt.Fprintf(&b, "\n**Profile Description:**\n%s\n", user.ProfileDescription)
	}

	b.WriteString("\n### Recent Posts (Last 10)\n\n")
	posts, err := h.client.RedditorSubmissions(ctx, username, recentPostsLimit)
	if err != nil {
		h.logger.LogWarn("recent posts unavailable", err, map[string]interface{}{"username": username})
		b.WriteString(RecentPostsUnavailable + "\n")
		return b.String(), nil
	}

	for i, post := range posts {
		if i == recentPostsLimit {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** in r/%s (Score: %d, Comments: %d)\n", i+1, post.Title, post.Subreddit, post.Score, post.NumComments)
	}

	return b.String(), nil
}
