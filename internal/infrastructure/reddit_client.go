package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

// ErrSubmitNotAllowed is returned by SubmitTextPost without account credentials.
var ErrSubmitNotAllowed = errors.New("submitting requires reddit username and password")

var submissionIDPattern = regexp.MustCompile(`/comments/([A-Za-z0-9]+)`)

// RedditClient talks to Reddit's OAuth JSON API.
// It implements domain.RedditClient.
type RedditClient struct {
	client  *resty.Client
	tokens  *TokenSource
	limiter *rate.Limiter
	creds   domain.Credentials
	log     *logging.Entry
}

// NewRedditClient creates a client from the Reddit configuration. It fails
// when the credentials are incomplete.
func NewRedditClient(cfg domain.RedditConfig) (*RedditClient, error) {
	creds := domain.CredentialsFromConfig(cfg)
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = domain.DefaultRequestsPerMinute
	}
	burst := rpm / 6
	if burst < 1 {
		burst = 1
	}

	c := &RedditClient{
		tokens:  NewTokenSource(cfg.TokenURL, creds, cfg.Timeout),
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), burst),
		creds:   creds,
		log:     logging.Named("reddit"),
	}

	c.client = resty.New().
		SetLogger(c.log).
		SetBaseURL(strings.TrimSuffix(cfg.APIBaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", creds.UserAgent).
		SetHeader("Accept", "application/json").
		// Reddit redirects unknown subreddits to the search page; surface that as an error
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if resp == nil {
				return false
			}
			switch code := resp.StatusCode(); {
			case code == http.StatusUnauthorized:
				c.tokens.Invalidate()
				return true
			case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
				return true
			}
			return false
		}).
		OnBeforeRequest(c.authorize)

	return c, nil
}

// authorize throttles the request and attaches a bearer token.
func (c *RedditClient) authorize(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.SetAuthToken(token)
	return nil
}

// get issues a GET request and decodes the JSON body into out.
func (c *RedditClient) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	query := map[string]string{"raw_json": "1"}
	for k, v := range params {
		if v != "" {
			query[k] = v
		}
	}

	c.log.WithField("path", path).Debug("GET")

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}

	if err := checkResponse(resp); err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// checkResponse turns any non-2xx response into a RedditAPIError.
func checkResponse(resp *resty.Response) error {
	if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		return nil
	}
	return apiErrorFromResponse(resp)
}

// errorBody covers the shapes Reddit uses for error responses.
type errorBody struct {
	Message     string `json:"message"`
	Reason      string `json:"reason"`
	Explanation string `json:"explanation"`
	Error       any    `json:"error"`
}

func apiErrorFromResponse(resp *resty.Response) *domain.RedditAPIError {
	status := resp.StatusCode()
	apiErr := domain.NewRedditAPIError(status, "", domain.StatusMessage(status))

	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return apiErr
	}

	if body.Reason != "" {
		apiErr.Code = body.Reason
	} else if code, ok := body.Error.(string); ok {
		apiErr.Code = code
	}

	switch {
	case body.Explanation != "":
		apiErr.Message = body.Explanation
	case body.Message != "" && !strings.EqualFold(body.Message, http.StatusText(status)):
		apiErr.Message = body.Message
	}
	return apiErr
}

// SubredditPosts lists posts of a subreddit.
func (c *RedditClient) SubredditPosts(ctx context.Context, subreddit string, sort domain.ListingSort, timeFilter domain.TimeFilter, limit int) ([]domain.Post, error) {
	params := map[string]string{"limit": strconv.Itoa(limit)}
	if sort == domain.SortTop {
		params["t"] = string(timeFilter)
	}

	var l listing
	path := fmt.Sprintf("/r/%s/%s", url.PathEscape(subreddit), sort)
	if err := c.get(ctx, path, params, &l); err != nil {
		return nil, err
	}
	return l.posts()
}

// Submission fetches a post and its top-level comments.
func (c *RedditClient) Submission(ctx context.Context, id string, sort domain.CommentSort) (*domain.Submission, error) {
	id = strings.TrimPrefix(strings.TrimSpace(id), "t3_")
	if id == "" {
		return nil, fmt.Errorf("submission id is empty")
	}

	var listings []listing
	path := "/comments/" + url.PathEscape(id)
	if err := c.get(ctx, path, map[string]string{"sort": commentSortParam(sort)}, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 1 {
		return nil, fmt.Errorf("unexpected response for submission %s", id)
	}

	posts, err := listings[0].posts()
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, domain.NewRedditAPIError(http.StatusNotFound, "", "submission not found")
	}

	sub := &domain.Submission{Post: posts[0]}
	if len(listings) > 1 {
		if sub.Comments, err = listings[1].comments(); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// SubmissionByURL extracts the submission id from a Reddit URL and fetches it.
func (c *RedditClient) SubmissionByURL(ctx context.Context, rawURL string, sort domain.CommentSort) (*domain.Submission, error) {
	id, err := SubmissionIDFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	return c.Submission(ctx, id, sort)
}

// SubmissionIDFromURL returns the id in a ".../comments/<id>/..." URL.
func SubmissionIDFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid submission URL %q: %w", rawURL, err)
	}
	match := submissionIDPattern.FindStringSubmatch(parsed.Path)
	if match == nil {
		return "", fmt.Errorf("invalid submission URL %q: no post id found", rawURL)
	}
	return match[1], nil
}

// Search runs a subreddit-scoped or global search.
func (c *RedditClient) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Post, error) {
	scope := q.Subreddit
	if scope == "" {
		scope = "all"
	}

	params := map[string]string{
		"q":           q.Query,
		"sort":        string(q.Sort),
		"t":           string(q.TimeFilter),
		"limit":       strconv.Itoa(q.Limit),
		"restrict_sr": "on",
		"type":        "link",
	}

	var l listing
	if err := c.get(ctx, fmt.Sprintf("/r/%s/search", url.PathEscape(scope)), params, &l); err != nil {
		return nil, err
	}
	return l.posts()
}

// Redditor fetches a user's about page.
func (c *RedditClient) Redditor(ctx context.Context, name string) (*domain.User, error) {
	var t thing
	if err := c.get(ctx, fmt.Sprintf("/user/%s/about", url.PathEscape(name)), nil, &t); err != nil {
		return nil, err
	}

	var a accountData
	if err := json.Unmarshal(t.Data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", name, err)
	}
	if a.IsSuspended {
		return nil, domain.NewRedditAPIError(http.StatusForbidden, "suspended", fmt.Sprintf("user %s is suspended", name))
	}
	user := a.toDomain()
	return &user, nil
}

// RedditorSubmissions lists a user's newest submissions.
func (c *RedditClient) RedditorSubmissions(ctx context.Context, name string, limit int) ([]domain.Post, error) {
	params := map[string]string{"sort": "new", "limit": strconv.Itoa(limit)}

	var l listing
	if err := c.get(ctx, fmt.Sprintf("/user/%s/submitted", url.PathEscape(name)), params, &l); err != nil {
		return nil, err
	}
	return l.posts()
}

// Subreddit fetches a community's about page.
func (c *RedditClient) Subreddit(ctx context.Context, name string) (*domain.Subreddit, error) {
	var t thing
	if err := c.get(ctx, fmt.Sprintf("/r/%s/about", url.PathEscape(name)), nil, &t); err != nil {
		return nil, err
	}
	if t.Kind != "t5" {
		return nil, domain.NewRedditAPIError(http.StatusNotFound, "", fmt.Sprintf("subreddit %s not found", name))
	}

	var s subredditData
	if err := json.Unmarshal(t.Data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode subreddit %s: %w", name, err)
	}
	sub := s.toDomain()
	return &sub, nil
}

// SubredditRules fetches a community's rules.
func (c *RedditClient) SubredditRules(ctx context.Context, name string) ([]domain.Rule, error) {
	var r rulesResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/about/rules", url.PathEscape(name)), nil, &r); err != nil {
		return nil, err
	}

	rules := make([]domain.Rule, 0, len(r.Rules))
	for _, rule := range r.Rules {
		rules = append(rules, domain.Rule{ShortName: rule.ShortName, Description: rule.Description})
	}
	return rules, nil
}

// SubredditModerators fetches up to limit moderator names.
func (c *RedditClient) SubredditModerators(ctx context.Context, name string, limit int) ([]string, error) {
	var m moderatorsResponse
	params := map[string]string{"limit": strconv.Itoa(limit)}
	if err := c.get(ctx, fmt.Sprintf("/r/%s/about/moderators", url.PathEscape(name)), params, &m); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(m.Data.Children))
	for _, child := range m.Data.Children {
		if len(names) == limit {
			break
		}
		names = append(names, child.Name)
	}
	return names, nil
}

// SubmitTextPost creates a self post in a subreddit.
func (c *RedditClient) SubmitTextPost(ctx context.Context, subreddit, title, text string) (*domain.SubmittedPost, error) {
	if !c.creds.CanSubmit() {
		return nil, ErrSubmitNotAllowed
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_type": "json",
			"kind":     "self",
			"sr":       subreddit,
			"title":    title,
			"text":     text,
		}).
		Post("/api/submit")
	if err != nil {
		return nil, fmt.Errorf("request to /api/submit failed: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var sr submitResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}
	if apiErr := sr.JSON.firstError(resp.StatusCode()); apiErr != nil {
		return nil, apiErr
	}

	return &domain.SubmittedPost{
		ID:   sr.JSON.Data.ID,
		Name: sr.JSON.Data.Name,
		URL:  sr.JSON.Data.URL,
	}, nil
}

// commentSortParam maps a comment sort onto Reddit's query value.
func commentSortParam(sort domain.CommentSort) string {
	if sort == domain.CommentSortBest || sort == "" {
		return "confidence"
	}
	return string(sort)
}
