package domain

import (
	"context"
)

// RedditClient is the authenticated handle every tool handler talks to.
// It is constructed once at startup and shared by all handlers.
type RedditClient interface {
	// SubredditPosts lists up to limit posts of a subreddit. The time filter is
	// only sent for SortTop.
	SubredditPosts(ctx context.Context, subreddit string, sort ListingSort, timeFilter TimeFilter, limit int) ([]Post, error)

	// Submission fetches a post by id together with its top-level comments.
	Submission(ctx context.Context, id string, sort CommentSort) (*Submission, error)

	// SubmissionByURL fetches a post by its full URL.
	SubmissionByURL(ctx context.Context, rawURL string, sort CommentSort) (*Submission, error)

	// Search runs a text search scoped to a subreddit, or to all of Reddit
	// when query.Subreddit is empty.
	Search(ctx context.Context, query SearchQuery) ([]Post, error)

	// Redditor fetches a user's public profile.
	Redditor(ctx context.Context, name string) (*User, error)

	// RedditorSubmissions lists a user's newest submissions.
	RedditorSubmissions(ctx context.Context, name string, limit int) ([]Post, error)

	// Subreddit fetches a community's about page.
	Subreddit(ctx context.Context, name string) (*Subreddit, error)

	// SubredditRules fetches a community's rules.
	SubredditRules(ctx context.Context, name string) ([]Rule, error)

	// SubredditModerators fetches up to limit moderator names.
	SubredditModerators(ctx context.Context, name string, limit int) ([]string, error)

	// SubmitTextPost creates a self post. Requires username/password credentials.
	SubmitTextPost(ctx context.Context, subreddit, title, text string) (*SubmittedPost, error)
}

// ListingSort orders a subreddit listing.
type ListingSort string

const (
	SortHot    ListingSort = "hot"
	SortNew    ListingSort = "new"
	SortRising ListingSort = "rising"
	SortTop    ListingSort = "top"
)

// CommentSort orders a comment listing.
type CommentSort string

const (
	CommentSortBest          CommentSort = "best"
	CommentSortTop           CommentSort = "top"
	CommentSortNew           CommentSort = "new"
	CommentSortControversial CommentSort = "controversial"
)

// SearchSort orders search results.
type SearchSort string

const (
	SearchSortRelevance SearchSort = "relevance"
	SearchSortHot       SearchSort = "hot"
	SearchSortTop       SearchSort = "top"
	SearchSortNew       SearchSort = "new"
	SearchSortComments  SearchSort = "comments"
)

// TimeFilter bounds top listings and searches.
type TimeFilter string

const (
	TimeHour  TimeFilter = "hour"
	TimeDay   TimeFilter = "day"
	TimeWeek  TimeFilter = "week"
	TimeMonth TimeFilter = "month"
	TimeYear  TimeFilter = "year"
	TimeAll   TimeFilter = "all"
)

// SearchQuery holds the parameters of a search.
type SearchQuery struct {
	Query      string
	Subreddit  string
	Sort       SearchSort
	TimeFilter TimeFilter
	Limit      int
}
