package application

import (
	"context"
	"fmt"
	"strings"

	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

const moderatorLimit = 10

// SubredditPostsHandler implements get_subreddit_posts.
type SubredditPostsHandler struct {
	client domain.RedditClient
}

// NewSubredditPostsHandler creates a new SubredditPostsHandler instance.
func NewSubredditPostsHandler(client domain.RedditClient) *SubredditPostsHandler {
	return &SubredditPostsHandler{client: client}
}

// Definition returns the tool definition.
func (h *SubredditPostsHandler) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolGetSubredditPosts,
		Description: "Get posts from a specific subreddit",
		InputSchema: objectSchema(map[string]domain.Property{
			"subreddit":   stringProp("Name of the subreddit (without r/)"),
			"sort":        enumProp("Sort method: hot, new, rising, top", "hot", listingSorts),
			"time_filter": enumProp("Time filter for 'top' sort: hour, day, week, month, year, all", "day", timeFilterValues),
			"limit":       intProp("Number of posts to fetch (1-100)", 25, 1, 100),
		}, "subreddit"),
	}
}

type subredditPostsArgs struct {
	Subreddit  string
	Sort       domain.ListingSort
	TimeFilter domain.TimeFilter
	Limit      int
}

func (h *SubredditPostsHandler) parseArgs(args map[string]interface{}) (subredditPostsArgs, error) {
	p := newArgParser(args, h.Definition().InputSchema)
	a := subredditPostsArgs{
		Subreddit:  trimPrefixFold(p.String("subreddit"), "/r/", "r/"),
		Sort:       domain.ListingSort(p.Enum("sort")),
		TimeFilter: domain.TimeFilter(p.Enum("time_filter")),
		Limit:      p.Int("limit"),
	}
	return a, p.err
}

// Handle fetches and renders a subreddit listing.
func (h *SubredditPostsHandler) Handle(ctx context.Context, args map[string]interface{}) (string, error) {
	a, err := h.parseArgs(args)
	if err != nil {
		return "", err
	}

	// The time filter only bounds top listings
	timeFilter := a.TimeFilter
	if a.Sort != domain.SortTop {
		timeFilter = ""
	}

	posts, err := h.client.SubredditPosts(ctx, a.Subreddit, a.Sort, timeFilter, a.Limit)
	if err != nil {
		return "", domain.WrapToolError(fmt.Sprintf("fetching posts from r/%s", a.Subreddit), err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Posts from r/%s (sorted by %s)\n\n", a.Subreddit, a.Sort)
	for i, post := range posts {
		fmt.Fprintf(&b, "### %d. %s\n", i+1, post.Title)
		fmt.Fprintf(&b, "- **Author:** u/%s\n", post.AuthorName())
		fmt.Fprintf(&b, "- **Score:** %d (%d%% upvoted)\n", post.Score, post.UpvotePercent())
		fmt.Fprintf(&b, "- **Comments:** %d\n", post.NumComments)
		fmt.Fprintf(&b, "- **URL:** %s\n", post.URL)
		fmt.Fprintf(&b, "- **Reddit Link:** %s\n", post.PermalinkURL())
		if post.LinkFlairText != "" {
			fmt.Fprintf(&b, "- **Flair:** %s\n", post.LinkFlairText)
		}
		if post.Selftext != "" {
			fmt.Fprintf(&b, "- **Text:** %s\n", truncate(post.Selftext, listingTextLimit))
		}
		fmt.Fprintf(&b, "- **NSFW:** %s\n", yesNo(post.Over18))
		fmt.Fprintf(&b, "- **Post ID:** %s\n\n", post.ID)
	}

	return b.String(), nil
}

// SubredditInfoHandler implements get_subreddit_info.
type SubredditInfoHandler struct {
	client domain.RedditClient
	logger *logging.StructuredLogger
}

// NewSubredditInfoHandler creates a new SubredditInfoHandler instance.
func NewSubredditInfoHandler(client domain.RedditClient) *SubredditInfoHandler {
	return &SubredditInfoHandler{
		client: client,
		logger: logging.NewStructuredLogger(ToolGetSubredditInfo),
	}
}

// Definition returns the tool definition.
func (h *SubredditInfoHandler) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolGetSubredditInfo,
		Description: "Get information about a subreddit",
		InputSchema: objectSchema(map[string]domain.Property{
			"subreddit": stringProp("Name of the subreddit (without r/)"),
		}, "subreddit"),
	}
}

// Handle renders a community's about block, followed by its rules and
// moderators when those can be fetched.
func (h *SubredditInfoHandler) Handle(ctx context.Context, args map[string]interface{}) (string, error) {
	p := newArgParser(args, h.Definition().InputSchema)
	name := trimPrefixFold(p.String("subreddit"), "/r/", "r/")
	if p.err != nil {
		return "", p.err
	}

	sub, err := h.client.Subreddit(ctx, name)
	if err != nil {
		return "", domain.WrapToolError("fetching subreddit info", err)
	}

	activeUsers := "N/A"
	if sub.ActiveUserCount != nil {
		activeUsers = formatCount(*sub.ActiveUserCount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## r/%s\n\n", sub.DisplayName)
	fmt.Fprintf(&b, "**Display Name:** %s\n", sub.DisplayName)
	fmt.Fprintf(&b, "**Title:** %s\n", sub.Title)
	fmt.Fprintf(&b, "**Subscribers:** %s\n", formatCount(sub.Subscribers))
	fmt.Fprintf(&b, "**Active Users:** %s\n", activeUsers)
	fmt.Fprintf(&b, "**Created:** %s\n", formatTime(sub.Created()))
	fmt.Fprintf(&b, "**NSFW:** %s\n", yesNo(sub.Over18))
	fmt.Fprintf(&b, "**Type:** %s\n", sub.SubredditType)
	if sub.PublicDescription != "" {
		fmt.Fprintf(&b, "\n**Description:**\n%s\n", sub.PublicDescription)
	}

	// Rules and moderators are best effort: on failure the section is omitted
	rules, err := h.client.SubredditRules(ctx, name)
	if err != nil {
		h.logger.LogWarn("omitting subreddit rules", err, map[string]interface{}{"subreddit": name})
	} else if len(rules) > 0 {
		b.WriteString("\n### Rules\n\n")
		for i, rule := range rules {
			fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, rule.ShortName, truncate(rule.Description, previewLimit))
		}
	}

	mods, err := h.client.SubredditModerators(ctx, name, moderatorLimit)
	if err != nil {
		h.logger.LogWarn("omitting subreddit moderators", err, map[string]interface{}{"subreddit": name})
	} else if names := filterModerators(mods); len(names) > 0 {
		fmt.Fprintf(&b, "\n### Moderators\n%s\n", strings.Join(names, ", "))
	}

	return b.String(), nil
}

// filterModerators drops empty and literal "None" entries and caps the list.
func filterModerators(mods []string) []string {
	names := make([]string, 0, len(mods))
	for _, name := range mods {
		if name == "" || name == "None" {
			continue
		}
		if len(names) == moderatorLimit {
			break
		}
		names = append(names, name)
	}
	return names
}
