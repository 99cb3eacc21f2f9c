package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

const tokenPath = "/api/v1/access_token"

// fakeReddit serves the token endpoint plus whatever API routes a test registers.
type fakeReddit struct {
	t          *testing.T
	server     *http.ServeMux
	tokenCalls int32

	mu        sync.Mutex
	lastQuery map[string]string
}

// query returns the query parameters of the most recent API request.
func (f *fakeReddit) query() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func newFakeReddit(t *testing.T) (*fakeReddit, *httptest.Server) {
	f := &fakeReddit{t: t, server: http.NewServeMux()}
	f.server.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "id" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse token form: %v", err)
		}
		if r.PostForm.Get("grant_type") == "password" && r.PostForm.Get("password") != "hunter2" {
			fmt.Fprint(w, `{"error": "invalid_grant"}`)
			return
		}
		fmt.Fprint(w, `{"access_token": "tok", "token_type": "bearer", "expires_in": 3600, "scope": "*"}`)
	})

	ts := httptest.NewServer(f.server)
	t.Cleanup(ts.Close)
	return f, ts
}

// handle registers an API route that checks the bearer token and records the query.
func (f *fakeReddit) handle(path string, status int, body string) {
	f.server.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			f.t.Errorf("Expected bearer token on %s, got '%s'", path, got)
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent/1.0" {
			f.t.Errorf("Expected user agent 'test-agent/1.0', got '%s'", ua)
		}
		query := map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		f.mu.Lock()
		f.lastQuery = query
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

func testConfig(baseURL string) domain.RedditConfig {
	return domain.RedditConfig{
		ClientID:          "id",
		ClientSecret:      "secret",
		UserAgent:         "test-agent/1.0",
		APIBaseURL:        baseURL,
		TokenURL:          baseURL + tokenPath,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 6000,
		RetryCount:        0,
	}
}

func newTestClient(t *testing.T, cfg domain.RedditConfig) *RedditClient {
	t.Helper()
	client, err := NewRedditClient(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

const postListing = `{"kind": "Listing", "data": {"children": [
	{"kind": "t3", "data": {"id": "abc123", "title": "Hello Go", "author": "gopher", "score": 42,
		"upvote_ratio": 0.87, "num_comments": 5, "created_utc": 1700000000.0, "url": "https://example.com",
		"permalink": "/r/golang/comments/abc123/hello_go/", "selftext": "body", "subreddit": "golang",
		"link_flair_text": "discussion", "is_self": true, "over_18": false}},
	{"kind": "t3", "data": {"id": "def456", "title": "Gone", "author": "[deleted]", "link_flair_text": null}}
]}}`

func TestRedditClient_SubredditPosts(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.handle("/r/golang/top", http.StatusOK, postListing)
	client := newTestClient(t, testConfig(ts.URL))

	posts, err := client.SubredditPosts(context.Background(), "golang", domain.SortTop, domain.TimeWeek, 10)
	if err != nil {
		t.Fatalf("Expected posts, got error: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}
	first := posts[0]
	if first.ID != "abc123" || first.Title != "Hello Go" || first.Score != 42 || first.LinkFlairText != "discussion" {
		t.Errorf("Unexpected first post: %+v", first)
	}
	if first.UpvotePercent() != 87 {
		t.Errorf("Expected 87%%, got %d%%", first.UpvotePercent())
	}
	if posts[1].Author != "" || posts[1].AuthorName() != "[deleted]" {
		t.Errorf("Expected deleted author to be absent, got '%s'", posts[1].Author)
	}
	if posts[1].LinkFlairText != "" {
		t.Errorf("Expected empty flair for null, got '%s'", posts[1].LinkFlairText)
	}

	if fake.query()["t"] != "week" || fake.query()["limit"] != "10" || fake.query()["raw_json"] != "1" {
		t.Errorf("Unexpected query: %v", fake.query())
	}
}

func TestRedditClient_SubredditPostsOmitsTimeFilterUnlessTop(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.handle("/r/golang/hot", http.StatusOK, postListing)
	client := newTestClient(t, testConfig(ts.URL))

	if _, err := client.SubredditPosts(context.Background(), "golang", domain.SortHot, domain.TimeWeek, 5); err != nil {
		t.Fatalf("Expected posts, got error: %v", err)
	}
	if _, ok := fake.query()["t"]; ok {
		t.Errorf("Expected no time filter for hot listing, got %v", fake.query())
	}
}

func TestRedditClient_RedirectIsAPIError(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.server.HandleFunc("/r/doesnotexist/hot", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/subreddits/search.json?q=doesnotexist", http.StatusFound)
	})
	client := newTestClient(t, testConfig(ts.URL))

	_, err := client.SubredditPosts(context.Background(), "doesnotexist", domain.SortHot, domain.TimeDay, 5)

	var apiErr *domain.RedditAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected RedditAPIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusFound {
		t.Errorf("Expected status 302, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "resource not found (redirected)" {
		t.Errorf("Unexpected message: '%s'", apiErr.Message)
	}
}

func TestRedditClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "plain not found",
			status:      http.StatusNotFound,
			body:        `{"message": "Not Found", "error": 404}`,
			wantMessage: "resource not found",
		},
		{
			name:        "private subreddit",
			status:      http.StatusForbidden,
			body:        `{"reason": "private", "message": "Forbidden", "error": 403}`,
			wantCode:    "private",
			wantMessage: "access forbidden (private, quarantined or banned)",
		},
		{
			name:        "banned with explanation",
			status:      http.StatusNotFound,
			body:        `{"reason": "banned", "explanation": "This community has been banned", "error": 404}`,
			wantCode:    "banned",
			wantMessage: "This community has been banned",
		},
		{
			name:        "non json body",
			status:      http.StatusServiceUnavailable,
			body:        `<html>down</html>`,
			wantMessage: "service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, ts := newFakeReddit(t)
			fake.handle("/r/x/about", tt.status, tt.body)
			client := newTestClient(t, testConfig(ts.URL))

			_, err := client.Subreddit(context.Background(), "x")

			var apiErr *domain.RedditAPIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected RedditAPIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Expected code '%s', got '%s'", tt.wantCode, apiErr.Code)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Expected message '%s', got '%s'", tt.wantMessage, apiErr.Message)
			}
		})
	}
}

func TestRedditClient_Submission(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.handle("/comments/abc123", http.StatusOK, `[
		{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "abc123", "title": "Hello Go"}}]}},
		{"kind": "Listing", "data": {"children": [
			{"kind": "t1", "data": {"id": "c1", "author": "alice", "score": 3, "body": "first"}},
			{"kind": "t1", "data": {"id": "c2", "author": "[deleted]", "score": 1, "body": "[deleted]"}},
			{"kind": "more", "data": {"count": 17, "children": ["c3", "c4"]}}
		]}}
	]`)
	client := newTestClient(t, testConfig(ts.URL))

	sub, err := client.Submission(context.Background(), "t3_abc123", domain.CommentSortBest)
	if err != nil {
		t.Fatalf("Expected submission, got error: %v", err)
	}

	if sub.Post.Title != "Hello Go" {
		t.Errorf("Expected title 'Hello Go', got '%s'", sub.Post.Title)
	}
	if fake.query()["sort"] != "confidence" {
		t.Errorf("Expected sort 'confidence' for best, got '%s'", fake.query()["sort"])
	}
	if len(sub.Comments) != 3 {
		t.Fatalf("Expected 3 comment nodes, got %d", len(sub.Comments))
	}
	if sub.Comments[2].More == nil || sub.Comments[2].More.Count != 17 {
		t.Errorf("Expected more placeholder with count 17, got %+v", sub.Comments[2])
	}

	comments := sub.Comments.ReplaceMore()
	if len(comments) != 2 {
		t.Fatalf("Expected 2 comments after ReplaceMore, got %d", len(comments))
	}
	if !comments[1].Deleted() || comments[1].Author != "" {
		t.Errorf("Expected second comment to be deleted, got %+v", comments[1])
	}
}

func TestRedditClient_SubmissionByURL(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.handle("/comments/xyz789", http.StatusOK, `[
		{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "xyz789", "title": "By URL"}}]}},
		{"kind": "Listing", "data": {"children": []}}
	]`)
	client := newTestClient(t, testConfig(ts.URL))

	sub, err := client.SubmissionByURL(context.Background(), "https://www.reddit.com/r/golang/comments/xyz789/by_url/", domain.CommentSortTop)
	if err != nil {
		t.Fatalf("Expected submission, got error: %v", err)
	}
	if sub.Post.ID != "xyz789" {
		t.Errorf("Expected id 'xyz789', got '%s'", sub.Post.ID)
	}
	if fake.query()["sort"] != "top" {
		t.Errorf("Expected sort 'top', got '%s'", fake.query()["sort"])
	}

	if _, err := client.SubmissionByURL(context.Background(), "https://www.reddit.com/r/golang/", domain.CommentSortTop); err == nil {
		t.Error("Expected error for URL without post id")
	}
}

func TestSubmissionIDFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.reddit.com/r/golang/comments/abc123/title/", "abc123", false},
		{"https://reddit.com/comments/Zz9/", "Zz9", false},
		{"https://old.reddit.com/r/golang/comments/q1w2e3", "q1w2e3", false},
		{"https://www.reddit.com/r/golang/", "", true},
		{"://bad", "", true},
	}

	for _, tt := range tests {
		got, err := SubmissionIDFromURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Expected error for %q, got id '%s'", tt.url, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Expected '%s' for %q, got '%s'", tt.want, tt.url, got)
		}
	}
}

func TestRedditClient_Search(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.handle("/r/all/search", http.StatusOK, postListing)
	fake.handle("/r/golang/search", http.StatusOK, `{"kind": "Listing", "data": {"children": []}}`)
	client := newTestClient(t, testConfig(ts.URL))

	posts, err := client.Search(context.Background(), domain.SearchQuery{
		Query: "generics", Sort: domain.SearchSortTop, TimeFilter: domain.TimeYear, Limit: 7,
	})
	if err != nil {
		t.Fatalf("Expected results, got error: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("Expected 2 results, got %d", len(posts))
	}
	for k, want := range map[string]string{"q": "generics", "sort": "top", "t": "year", "limit": "7", "type": "link"} {
		if fake.query()[k] != want {
			t.Errorf("Expected %s=%s, got '%s'", k, want, fake.query()[k])
		}
	}

	posts, err = client.Search(context.Background(), domain.SearchQuery{
		Query: "nothing", Subreddit: "golang", Sort: domain.SearchSortRelevance, TimeFilter: domain.TimeAll, Limit: 25,
	})
	if err != nil {
		t.Fatalf("Expected empty results, got error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("Expected no results, got %d", len(posts))
	}
}

func TestRedditClient_Redditor(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.handle("/user/spez/about", http.StatusOK, `{"kind": "t2", "data": {"name": "spez", "comment_karma": 1234,
		"link_karma": 5678, "created_utc": 1118030400.0, "has_verified_email": true, "is_employee": true,
		"subreddit": {"public_description": "CEO"}}}`)
	fake.handle("/user/banned/about", http.StatusOK, `{"kind": "t2", "data": {"name": "banned", "is_suspended": true}}`)
	fake.handle("/user/spez/submitted", http.StatusOK, postListing)
	client := newTestClient(t, testConfig(ts.URL))

	user, err := client.Redditor(context.Background(), "spez")
	if err != nil {
		t.Fatalf("Expected user, got error: %v", err)
	}
	if user.Name != "spez" || user.CommentKarma != 1234 || !user.IsEmployee || user.ProfileDescription != "CEO" {
		t.Errorf("Unexpected user: %+v", user)
	}

	posts, err := client.RedditorSubmissions(context.Background(), "spez", 10)
	if err != nil {
		t.Fatalf("Expected submissions, got error: %v", err)
	}
	if len(posts) != 2 || fake.query()["sort"] != "new" {
		t.Errorf("Unexpected submissions %d with query %v", len(posts), fake.query())
	}

	_, err = client.Redditor(context.Background(), "banned")
	var apiErr *domain.RedditAPIError
	if !errors.As(err, &apiErr) || apiErr.Code != "suspended" {
		t.Errorf("Expected suspended API error, got %v", err)
	}
}

func TestRedditClient_SubredditInfo(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.handle("/r/golang/about", http.StatusOK, `{"kind": "t5", "data": {"display_name": "golang", "title": "The Go Programming Language",
		"subscribers": 250000, "accounts_active": 321, "created_utc": 1258000000.0, "over18": false,
		"subreddit_type": "public", "public_description": "Go"}}`)
	fake.handle("/r/golang/about/rules", http.StatusOK, `{"rules": [{"short_name": "Be nice", "description": "No flames"}]}`)
	fake.handle("/r/golang/about/moderators", http.StatusOK, `{"kind": "UserList", "data": {"children": [
		{"name": "mod1"}, {"name": "AutoModerator"}, {"name": "mod2"}]}}`)
	fake.handle("/r/listing/about", http.StatusOK, `{"kind": "Listing", "data": {"children": []}}`)
	client := newTestClient(t, testConfig(ts.URL))

	sub, err := client.Subreddit(context.Background(), "golang")
	if err != nil {
		t.Fatalf("Expected subreddit, got error: %v", err)
	}
	if sub.DisplayName != "golang" || sub.Subscribers != 250000 {
		t.Errorf("Unexpected subreddit: %+v", sub)
	}
	if sub.ActiveUserCount == nil || *sub.ActiveUserCount != 321 {
		t.Errorf("Expected active users from accounts_active, got %v", sub.ActiveUserCount)
	}

	rules, err := client.SubredditRules(context.Background(), "golang")
	if err != nil || len(rules) != 1 || rules[0].ShortName != "Be nice" {
		t.Errorf("Unexpected rules %+v, err %v", rules, err)
	}

	mods, err := client.SubredditModerators(context.Background(), "golang", 2)
	if err != nil {
		t.Fatalf("Expected moderators, got error: %v", err)
	}
	if len(mods) != 2 || mods[0] != "mod1" || mods[1] != "AutoModerator" {
		t.Errorf("Expected first two moderators, got %v", mods)
	}

	_, err = client.Subreddit(context.Background(), "listing")
	var apiErr *domain.RedditAPIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected not found error for non-subreddit response, got %v", err)
	}
}

func TestRedditClient_SubmitTextPost(t *testing.T) {
	fake, ts := newFakeReddit(t)
	fake.server.HandleFunc("/api/submit", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse form: %v", err)
		}
		if r.PostForm.Get("kind") != "self" || r.PostForm.Get("api_type") != "json" {
			t.Errorf("Unexpected submit form: %v", r.PostForm)
		}
		if r.PostForm.Get("sr") == "locked" {
			fmt.Fprint(w, `{"json": {"errors": [["SUBREDDIT_NOTALLOWED", "you aren't allowed to post there.", "sr"]]}}`)
			return
		}
		fmt.Fprint(w, `{"json": {"errors": [], "data": {"id": "new1", "name": "t3_new1", "url": "https://reddit.com/r/test/comments/new1/"}}}`)
	})

	readOnly := newTestClient(t, testConfig(ts.URL))
	if _, err := readOnly.SubmitTextPost(context.Background(), "test", "title", "text"); !errors.Is(err, ErrSubmitNotAllowed) {
		t.Errorf("Expected ErrSubmitNotAllowed, got %v", err)
	}

	cfg := testConfig(ts.URL)
	cfg.Username = "bot"
	cfg.Password = "hunter2"
	client := newTestClient(t, cfg)

	post, err := client.SubmitTextPost(context.Background(), "test", "title", "text")
	if err != nil {
		t.Fatalf("Expected submission, got error: %v", err)
	}
	if post.ID != "new1" || post.Name != "t3_new1" {
		t.Errorf("Unexpected submitted post: %+v", post)
	}

	_, err = client.SubmitTextPost(context.Background(), "locked", "title", "text")
	var apiErr *domain.RedditAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected RedditAPIError, got %v", err)
	}
	if apiErr.Code != "SUBREDDIT_NOTALLOWED" || apiErr.Field != "sr" {
		t.Errorf("Unexpected submit error: %+v", apiErr)
	}
}

func TestTokenSource(t *testing.T) {
	fake, ts := newFakeReddit(t)

	source := NewTokenSource(ts.URL+tokenPath, domain.Credentials{ClientID: "id", ClientSecret: "secret", UserAgent: "ua"}, 5*time.Second)
	for i := 0; i < 3; i++ {
		token, err := source.Token(context.Background())
		if err != nil {
			t.Fatalf("Expected token, got error: %v", err)
		}
		if token != "tok" {
			t.Errorf("Expected token 'tok', got '%s'", token)
		}
	}
	if calls := atomic.LoadInt32(&fake.tokenCalls); calls != 1 {
		t.Errorf("Expected cached token after first call, got %d token requests", calls)
	}

	source.Invalidate()
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("Expected token after invalidate, got error: %v", err)
	}
	if calls := atomic.LoadInt32(&fake.tokenCalls); calls != 2 {
		t.Errorf("Expected a new token request after invalidate, got %d", calls)
	}

	// Expired tokens are refreshed
	source.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("Expected refreshed token, got error: %v", err)
	}
	if calls := atomic.LoadInt32(&fake.tokenCalls); calls != 3 {
		t.Errorf("Expected expired token to be refreshed, got %d requests", calls)
	}
}

func TestTokenSource_Failures(t *testing.T) {
	_, ts := newFakeReddit(t)

	badClient := NewTokenSource(ts.URL+tokenPath, domain.Credentials{ClientID: "id", ClientSecret: "wrong", UserAgent: "ua"}, 5*time.Second)
	_, err := badClient.Token(context.Background())
	var apiErr *domain.RedditAPIError
	if !errors.As(err, &apiErr) || apiErr.Code != "invalid_client" {
		t.Errorf("Expected invalid_client error, got %v", err)
	}

	badPassword := NewTokenSource(ts.URL+tokenPath, domain.Credentials{
		ClientID: "id", ClientSecret: "secret", UserAgent: "ua", Username: "bot", Password: "nope",
	}, 5*time.Second)
	_, err = badPassword.Token(context.Background())
	if !errors.As(err, &apiErr) || apiErr.Code != "invalid_grant" {
		t.Errorf("Expected invalid_grant error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("Expected error text to name the grant failure, got %v", err)
	}
}

func TestNewRedditClient_RequiresCredentials(t *testing.T) {
	cfg := testConfig("https://oauth.reddit.com")
	cfg.ClientSecret = ""
	cfg.Username = "bot"

	client, err := NewRedditClient(cfg)
	if err == nil {
		t.Fatal("Expected error for incomplete credentials")
	}
	if client != nil {
		t.Error("Expected no client on error")
	}
	for _, want := range []string{"client secret is required", "username and password must be provided together"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to contain %q, got: %v", want, err)
		}
	}
}

// TestClientWarningsUseSharedLogger checks that resty's own warnings are
// written through the logrus root logger.
func TestClientWarningsUseSharedLogger(t *testing.T) {
	var buf bytes.Buffer
	if err := logging.Configure("warn", "json", &buf); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	t.Cleanup(func() { _ = logging.Configure("info", "json", os.Stderr) })

	_, ts := newFakeReddit(t)
	source := NewTokenSource(ts.URL+tokenPath, domain.Credentials{ClientID: "id", ClientSecret: "secret", UserAgent: "ua"}, 5*time.Second)
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("Expected token, got error: %v", err)
	}

	if !strings.Contains(buf.String(), "Basic Auth in HTTP mode") {
		t.Errorf("Expected resty warning in the shared log, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"component":"reddit-auth"`) {
		t.Errorf("Expected warning tagged with the auth component, got %q", buf.String())
	}
}

func TestCommentSortParam(t *testing.T) {
	tests := map[domain.CommentSort]string{
		domain.CommentSortBest:          "confidence",
		"":                              "confidence",
		domain.CommentSortTop:           "top",
		domain.CommentSortNew:           "new",
		domain.CommentSortControversial: "controversial",
	}
	for sort, want := range tests {
		if got := commentSortParam(sort); got != want {
			t.Errorf("Expected '%s' for '%s', got '%s'", want, sort, got)
		}
	}
}
