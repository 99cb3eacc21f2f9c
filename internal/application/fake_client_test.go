package application

import (
	"context"
	"sync"

	"reddit-mcp-server/internal/domain"
)

// fakeClient is an in-memory domain.RedditClient. Each method returns the
// configured value or error and records how it was called.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	posts     []domain.Post
	postsErr  error
	postsCall struct {
		subreddit  string
		sort       domain.ListingSort
		timeFilter domain.TimeFilter
		limit      int
	}

	submission    *domain.Submission
	submissionErr error
	submissionArg string
	commentSort   domain.CommentSort

	searchResults []domain.Post
	searchErr     error
	searchQuery   domain.SearchQuery

	user           *domain.User
	userErr        error
	userPosts      []domain.Post
	userPostsErr   error
	userPostsLimit int

	subreddit    *domain.Subreddit
	subredditErr error
	rules        []domain.Rule
	rulesErr     error
	mods         []string
	modsErr      error
	modsLimit    int

	submitted *domain.SubmittedPost
	submitErr error
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeClient) SubredditPosts(ctx context.Context, subreddit string, sort domain.ListingSort, timeFilter domain.TimeFilter, limit int) ([]domain.Post, error) {
	f.record("SubredditPosts")
	f.postsCall.subreddit = subreddit
	f.postsCall.sort = sort
	f.postsCall.timeFilter = timeFilter
	f.postsCall.limit = limit
	return f.posts, f.postsErr
}

func (f *fakeClient) Submission(ctx context.Context, id string, sort domain.CommentSort) (*domain.Submission, error) {
	f.record("Submission")
	f.submissionArg = id
	f.commentSort = sort
	return f.submission, f.submissionErr
}

func (f *fakeClient) SubmissionByURL(ctx context.Context, rawURL string, sort domain.CommentSort) (*domain.Submission, error) {
	f.record("SubmissionByURL")
	f.submissionArg = rawURL
	f.commentSort = sort
	return f.submission, f.submissionErr
}

func (f *fakeClient) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Post, error) {
	f.record("Search")
	f.searchQuery = query
	return f.searchResults, f.searchErr
}

func (f *fakeClient) Redditor(ctx context.Context, name string) (*domain.User, error) {
	f.record("Redditor")
	return f.user, f.userErr
}

func (f *fakeClient) RedditorSubmissions(ctx context.Context, name string, limit int) ([]domain.Post, error) {
	f.record("RedditorSubmissions")
	f.userPostsLimit = limit
	return f.userPosts, f.userPostsErr
}

func (f *fakeClient) Subreddit(ctx context.Context, name string) (*domain.Subreddit, error) {
	f.record("Subreddit")
	return f.subreddit, f.subredditErr
}

func (f *fakeClient) SubredditRules(ctx context.Context, name string) ([]domain.Rule, error) {
	f.record("SubredditRules")
	return f.rules, f.rulesErr
}

func (f *fakeClient) SubredditModerators(ctx context.Context, name string, limit int) ([]string, error) {
	f.record("SubredditModerators")
	f.modsLimit = limit
	return f.mods, f.modsErr
}

func (f *fakeClient) SubmitTextPost(ctx context.Context, subreddit, title, text string) (*domain.SubmittedPost, error) {
	f.record("SubmitTextPost")
	return f.submitted, f.submitErr
}

func samplePost(id, title string) domain.Post {
	return domain.Post{
		ID:          id,
		Title:       title,
		Author:      "gopher",
		Score:       100,
		UpvoteRatio: 0.87,
		NumComments: 12,
		CreatedUTC:  1700000000,
		URL:         "https://example.com/" + id,
		Permalink:   "/r/golang/comments/" + id + "/slug/",
		Subreddit:   "golang",
	}
}

func int64Ptr(n int64) *int64 {
	return &n
}
