package domain

import (
	"math"
	"time"
)

// PermalinkOrigin is prefixed to every relative Reddit permalink.
const PermalinkOrigin = "https://reddit.com"

// DeletedAuthor is rendered when a post or comment author is absent.
const DeletedAuthor = "[deleted]"

// DeletedBody is the body Reddit reports for a deleted comment.
const DeletedBody = "[deleted]"

// Post is a Reddit submission.
type Post struct {
	ID            string
	Title         string
	Author        string // empty when the account was removed
	Score         int
	UpvoteRatio   float64
	NumComments   int
	CreatedUTC    float64
	URL           string
	Permalink     string
	Selftext      string
	Subreddit     string
	LinkFlairText string
	IsSelf        bool
	Over18        bool
}

// AuthorName returns the author, or "[deleted]" when absent.
func (p *Post) AuthorName() string {
	return authorOrDeleted(p.Author)
}

// UpvotePercent returns the upvote ratio as a whole percentage, rounded to nearest.
func (p *Post) UpvotePercent() int {
	return int(math.Round(p.UpvoteRatio * 100))
}

// PermalinkURL returns the absolute permalink.
func (p *Post) PermalinkURL() string {
	return PermalinkOrigin + p.Permalink
}

// Created returns the creation time in UTC.
func (p *Post) Created() time.Time {
	return unixUTC(p.CreatedUTC)
}

// Comment is a single Reddit comment.
type Comment struct {
	ID     string
	Author string // empty when the account was removed
	Score  int
	Body   string
}

// AuthorName returns the author, or "[deleted]" when absent.
func (c *Comment) AuthorName() string {
	return authorOrDeleted(c.Author)
}

// Deleted reports whether the comment body was deleted.
func (c *Comment) Deleted() bool {
	return c.Body == DeletedBody
}

// CommentNode is an entry of a comment listing: either a comment or a
// "load more" placeholder standing in for comments that were not returned.
type CommentNode struct {
	Comment *Comment
	More    *MoreComments
}

// MoreComments is a "load more" placeholder.
type MoreComments struct {
	Count    int
	Children []string
}

// CommentForest is the top-level comment listing of a submission.
type CommentForest []CommentNode

// ReplaceMore drops every placeholder without fetching anything further and
// returns the comments already present, in order.
func (f CommentForest) ReplaceMore() []Comment {
	comments := make([]Comment, 0, len(f))
	for _, node := range f {
		if node.Comment == nil {
			continue
		}
		comments = append(comments, *node.Comment)
	}
	return comments
}

// Submission is a post together with its top-level comments.
type Submission struct {
	Post     Post
	Comments CommentForest
}

// User is a Reddit account ("redditor").
type User struct {
	Name               string
	CommentKarma       int
	LinkKarma          int
	CreatedUTC         float64
	HasVerifiedEmail   bool
	IsEmployee         bool
	IsGold             bool
	IsMod              bool
	ProfileDescription string
}

// Created returns the account creation time in UTC.
func (u *User) Created() time.Time {
	return unixUTC(u.CreatedUTC)
}

// Subreddit is a community.
type Subreddit struct {
	DisplayName       string
	Title             string
	Subscribers       int64
	ActiveUserCount   *int64
	CreatedUTC        float64
	Over18            bool
	SubredditType     string
	PublicDescription string
}

// Created returns the community creation time in UTC.
func (s *Subreddit) Created() time.Time {
	return unixUTC(s.CreatedUTC)
}

// Rule is a subreddit rule.
type Rule struct {
	ShortName   string
	Description string
}

// SubmittedPost identifies a newly created post.
type SubmittedPost struct {
	ID   string
	Name string
	URL  string
}

func authorOrDeleted(author string) string {
	if author == "" {
		return DeletedAuthor
	}
	return author
}

func unixUTC(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
