package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

// tokenExpiryMargin renews a token this long before Reddit expires it.
const tokenExpiryMargin = 60 * time.Second

// tokenResponse is the body of Reddit's access_token endpoint.
// Reddit answers a rejected password grant with 200 and an "error" field.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
}

// TokenSource obtains and caches an OAuth2 bearer token for the configured
// credentials. It is safe for concurrent use.
type TokenSource struct {
	client   *resty.Client
	tokenURL string
	creds    domain.Credentials

	mu     sync.Mutex
	token  string
	expiry time.Time
	now    func() time.Time
}

// NewTokenSource creates a TokenSource posting to tokenURL.
func NewTokenSource(tokenURL string, creds domain.Credentials, timeout time.Duration) *TokenSource {
	client := resty.New().
		SetLogger(logging.Named("reddit-auth")).
		SetTimeout(timeout).
		SetHeader("User-Agent", creds.UserAgent).
		SetHeader("Accept", "application/json")

	return &TokenSource{
		client:   client,
		tokenURL: tokenURL,
		creds:    creds,
		now:      time.Now,
	}
}

// Token returns a valid access token, fetching a new one when the cached
// token is missing or about to expire.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry) {
		return ts.token, nil
	}

	form := map[string]string{"grant_type": ts.creds.AuthType().String()}
	if ts.creds.AuthType() == domain.PasswordAuth {
		form["username"] = ts.creds.Username
		form["password"] = ts.creds.Password
	}

	resp, err := ts.client.R().
		SetContext(ctx).
		SetBasicAuth(ts.creds.ClientID, ts.creds.ClientSecret).
		SetFormData(form).
		Post(ts.tokenURL)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return "", domain.NewRedditAPIError(resp.StatusCode(), "invalid_client", "invalid client id or secret")
	}
	if resp.IsError() {
		return "", apiErrorFromResponse(resp)
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.Error != "" {
		return "", domain.NewRedditAPIError(resp.StatusCode(), tr.Error, "access token request rejected")
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response did not include an access token")
	}

	ts.token = tr.AccessToken
	ts.expiry = ts.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin)
	return ts.token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
}
