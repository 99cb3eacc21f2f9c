package infrastructure

import (
	"encoding/json"
	"fmt"

	"reddit-mcp-server/internal/domain"
)

// thing is Reddit's generic {kind, data} envelope.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// listing is a page of things.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Before   string  `json:"before"`
		Dist     int     `json:"dist"`
		Children []thing `json:"children"`
	} `json:"data"`
}

// posts decodes every t3 child of the listing.
func (l *listing) posts() ([]domain.Post, error) {
	posts := make([]domain.Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var d linkData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode post: %w", err)
		}
		posts = append(posts, d.toDomain())
	}
	return posts, nil
}

// comments decodes the top level of a comment listing, keeping "more"
// placeholders as such.
func (l *listing) comments() (domain.CommentForest, error) {
	forest := make(domain.CommentForest, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		switch child.Kind {
		case "t1":
			var d commentData
			if err := json.Unmarshal(child.Data, &d); err != nil {
				return nil, fmt.Errorf("failed to decode comment: %w", err)
			}
			comment := d.toDomain()
			forest = append(forest, domain.CommentNode{Comment: &comment})
		case "more":
			var d moreData
			if err := json.Unmarshal(child.Data, &d); err != nil {
				return nil, fmt.Errorf("failed to decode placeholder: %w", err)
			}
			forest = append(forest, domain.CommentNode{More: &domain.MoreComments{Count: d.Count, Children: d.Children}})
		}
	}
	return forest, nil
}

type linkData struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Score         int     `json:"score"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
	URL           string  `json:"url"`
	Permalink     string  `json:"permalink"`
	Selftext      string  `json:"selftext"`
	Subreddit     string  `json:"subreddit"`
	LinkFlairText *string `json:"link_flair_text"`
	IsSelf        bool    `json:"is_self"`
	Over18        bool    `json:"over_18"`
}

func (d linkData) toDomain() domain.Post {
	post := domain.Post{
		ID:          d.ID,
		Title:       d.Title,
		Author:      authorName(d.Author),
		Score:       d.Score,
		UpvoteRatio: d.UpvoteRatio,
		NumComments: d.NumComments,
		CreatedUTC:  d.CreatedUTC,
		URL:         d.URL,
		Permalink:   d.Permalink,
		Selftext:    d.Selftext,
		Subreddit:   d.Subreddit,
		IsSelf:      d.IsSelf,
		Over18:      d.Over18,
	}
	if d.LinkFlairText != nil {
		post.LinkFlairText = *d.LinkFlairText
	}
	return post
}

type commentData struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Score  int    `json:"score"`
	Body   string `json:"body"`
}

func (d commentData) toDomain() domain.Comment {
	return domain.Comment{
		ID:     d.ID,
		Author: authorName(d.Author),
		Score:  d.Score,
		Body:   d.Body,
	}
}

type moreData struct {
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

type accountData struct {
	Name             string  `json:"name"`
	CommentKarma     int     `json:"comment_karma"`
	LinkKarma        int     `json:"link_karma"`
	CreatedUTC       float64 `json:"created_utc"`
	HasVerifiedEmail bool    `json:"has_verified_email"`
	IsEmployee       bool    `json:"is_employee"`
	IsGold           bool    `json:"is_gold"`
	IsMod            bool    `json:"is_mod"`
	IsSuspended      bool    `json:"is_suspended"`
	Subreddit        *struct {
		PublicDescription string `json:"public_description"`
	} `json:"subreddit"`
}

func (d accountData) toDomain() domain.User {
	user := domain.User{
		Name:             d.Name,
		CommentKarma:     d.CommentKarma,
		LinkKarma:        d.LinkKarma,
		CreatedUTC:       d.CreatedUTC,
		HasVerifiedEmail: d.HasVerifiedEmail,
		IsEmployee:       d.IsEmployee,
		IsGold:           d.IsGold,
		IsMod:            d.IsMod,
	}
	if d.Subreddit != nil {
		user.ProfileDescription = d.Subreddit.PublicDescription
	}
	return user
}

type subredditData struct {
	DisplayName       string  `json:"display_name"`
	Title             string  `json:"title"`
	Subscribers       int64   `json:"subscribers"`
	ActiveUserCount   *int64  `json:"active_user_count"`
	AccountsActive    *int64  `json:"accounts_active"`
	CreatedUTC        float64 `json:"created_utc"`
	Over18            bool    `json:"over18"`
	SubredditType     string  `json:"subreddit_type"`
	PublicDescription string  `json:"public_description"`
}

func (d subredditData) toDomain() domain.Subreddit {
	active := d.ActiveUserCount
	if active == nil {
		active = d.AccountsActive
	}
	return domain.Subreddit{
		DisplayName:       d.DisplayName,
		Title:             d.Title,
		Subscribers:       d.Subscribers,
		ActiveUserCount:   active,
		CreatedUTC:        d.CreatedUTC,
		Over18:            d.Over18,
		SubredditType:     d.SubredditType,
		PublicDescription: d.PublicDescription,
	}
}

type rulesResponse struct {
	Rules []struct {
		ShortName   string `json:"short_name"`
		Description string `json:"description"`
	} `json:"rules"`
}

type moderatorsResponse struct {
	Data struct {
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	} `json:"data"`
}

// submitResponse is the api_type=json envelope of POST /api/submit.
// Errors are [code, message, field] triples.
type submitResponse struct {
	JSON submitJSON `json:"json"`
}

type submitJSON struct {
	Errors [][]interface{} `json:"errors"`
	Data   struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"data"`
}

func (j submitJSON) firstError(status int) *domain.RedditAPIError {
	if len(j.Errors) == 0 {
		return nil
	}

	parts := make([]string, 3)
	for i := 0; i < len(parts) && i < len(j.Errors[0]); i++ {
		if s, ok := j.Errors[0][i].(string); ok {
			parts[i] = s
		}
	}
	return &domain.RedditAPIError{
		StatusCode: status,
		Code:       parts[0],
		Message:    parts[1],
		Field:      parts[2],
	}
}

// authorName maps Reddit's "[deleted]" author to an absent author.
func authorName(author string) string {
	if author == domain.DeletedAuthor {
		return ""
	}
	return author
}
