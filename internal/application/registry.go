package application

import (
	"reddit-mcp-server/internal/domain"
)

// Tool names.
const (
	ToolGetSubredditPosts = "get_subreddit_posts"
	ToolGetPostDetails    = "get_post_details"
	ToolGetPostComments   = "get_post_comments"
	ToolSearchReddit      = "search_reddit"
	ToolGetUserProfile    = "get_user_profile"
	ToolGetSubredditInfo  = "get_subreddit_info"
)

var (
	timeFilterValues = []string{"hour", "day", "week", "month", "year", "all"}
	listingSorts     = []string{"hot", "new", "rising", "top"}
	commentSorts     = []string{"best", "top", "new", "controversial"}
	searchSorts      = []string{"relevance", "hot", "top", "new", "comments"}
)

// NewToolHandlers returns one handler per tool, in listing order, all sharing
// the given client.
func NewToolHandlers(client domain.RedditClient) []domain.ToolHandler {
	return []domain.ToolHandler{
		NewSubredditPostsHandler(client),
		NewPostDetailsHandler(client),
		NewPostCommentsHandler(client),
		NewSearchHandler(client),
		NewUserProfileHandler(client),
		NewSubredditInfoHandler(client),
	}
}

func objectSchema(properties map[string]domain.Property, required ...string) domain.JSONSchema {
	return domain.JSONSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProp(description string) domain.Property {
	return domain.Property{Type: "string", Description: description}
}

func enumProp(description, def string, values []string) domain.Property {
	return domain.Property{
		Type:        "string",
		Description: description,
		Enum:        values,
		Default:     def,
	}
}

func intProp(description string, def, minimum, maximum int) domain.Property {
	return domain.Property{
		Type:        "integer",
		Description: description,
		Default:     def,
		Minimum:     &minimum,
		Maximum:     &maximum,
	}
}

func boolProp(description string, def bool) domain.Property {
	return domain.Property{Type: "boolean", Description: description, Default: def}
}
