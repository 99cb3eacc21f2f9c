package application

import (
	"context"
	"fmt"
	"strings"

	"reddit-mcp-server/internal/domain"
)

// SearchHandler implements search_reddit.
type SearchHandler struct {
	client domain.RedditClient
}

// NewSearchHandler creates a new SearchHandler instance.
func NewSearchHandler(client domain.RedditClient) *SearchHandler {
	return &SearchHandler{client: client}
}

// Definition returns the tool definition.
func (h *SearchHandler) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        ToolSearchReddit,
		Description: "Search Reddit for posts matching a query",
		InputSchema: objectSchema(map[string]domain.Property{
			"query":       stringProp("Search query"),
			"subreddit":   stringProp("Limit search to specific subreddit (optional)"),
			"sort":        enumProp("Sort method: relevance, hot, top, new, comments", "relevance", searchSorts),
			"time_filter": enumProp("Time filter: hour, day, week, month, year, all", "all", timeFilterValues),
			"limit":       intProp("Number of results to return (1-100)", 25, 1, 100),
		}, "query"),
	}
}

func (h *SearchHandler) parseArgs(args map[string]interface{}) (domain.SearchQuery, error) {
	p := newArgParser(args, h.Definition().InputSchema)
	q := domain.SearchQuery{
		Query:      p.String("query"),
		Subreddit:  trimPrefixFold(p.String("subreddit"), "/r/", "r/"),
		Sort:       domain.SearchSort(p.Enum("sort")),
		TimeFilter: domain.TimeFilter(p.Enum("time_filter")),
		Limit:      p.Int("limit"),
	}
	return q, p.err
}

// Handle runs the search and renders the results.
func (h *SearchHandler) Handle(ctx context.Context, args map[string]interface{}) (string, error) {
	q, err := h.parseArgs(args)
	if err != nil {
		return "", err
	}

	posts, err := h.client.Search(ctx, q)
	if err != nil {
		return "", domain.WrapToolError("searching Reddit", err)
	}

	if len(posts) == 0 {
		return fmt.Sprintf("No results found for '%s'", q.Query), nil
	}

	scope := "All of Reddit"
	if q.Subreddit != "" {
		scope = "r/" + q.Subreddit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Search Results for '%s' in %s\n\n", q.Query, scope)
	fmt.Fprintf(&b, "**Sort:** %s | **Time Filter:** %s | **Limit:** %d\n\n", q.Sort, q.TimeFilter, q.Limit)

	for i, post := range posts {
		if i == q.Limit {
			break
		}
		fmt.Fprintf(&b, "### %d. %s\n", i+1, post.Title)
		fmt.Fprintf(&b, "- **Subreddit:** r/%s\n", post.Subreddit)
		fmt.Fprintf(&b, "- **Author:** u/%s\n", post.AuthorName())
		fmt.Fprintf(&b, "- **Score:** %d | **Comments:** %d\n", post.Score, post.NumComments)
		fmt.Fprintf(&b, "- **URL:** %s\n", post.URL)
		fmt.Fprintf(&b, "- **Reddit Link:** %s\n", post.PermalinkURL())
		if post.Selftext != "" {
			fmt.Fprintf(&b, "- **Preview:** %s\n", truncate(post.Selftext, previewLimit))
		}
		fmt.Fprintf(&b, "- **Post ID:** %s\n\n", post.ID)
	}

	return b.String(), nil
}
