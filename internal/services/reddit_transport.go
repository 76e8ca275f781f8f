package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

const (
	DefaultUserAgent     = "OpportunityFinder/1.0"
	DefaultRedditTimeout = 15 * time.Second

	RedditPublicBaseURL = "https://www.reddit.com"
	RedditOAuthBaseURL  = "https://oauth.reddit.com"
	RedditTokenURL      = "https://www.reddit.com/api/v1/access_token"
)

// SearchQuery is one community search against Reddit.
type SearchQuery struct {
	Subreddit  string
	Keyword    string
	Sort       string
	Time       string
	Limit      int
	RestrictSR bool
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	v.Set("q", q.Keyword)
	v.Set("sort", q.Sort)
	v.Set("t", q.Time)
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.RestrictSR {
		v.Set("restrict_sr", "true")
	}
	return v
}

// SearchTransport is one strategy for reaching Reddit's search listing.
type SearchTransport interface {
	Name() string
	Search(ctx context.Context, q SearchQuery) (*models.Listing, error)
}

// redditHTTP holds what every transport shares.
type redditHTTP struct {
	httpClient *http.Client
	userAgent  string
}

func newRedditHTTP(timeout time.Duration, userAgent string) redditHTTP {
	if timeout <= 0 {
		timeout = DefaultRedditTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return redditHTTP{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

func (h redditHTTP) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// getListing performs the GET and decodes a listing, mapping every failure
// into a RetrievalError.
func (h redditHTTP) getListing(ctx context.Context, transport, rawURL, token string, q SearchQuery) (*models.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalUpstream, Subreddit: q.Subreddit, Transport: transport, Cause: err}
	}

	h.setHeaders(req, token)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalUnreachable, Subreddit: q.Subreddit, Transport: transport, Cause: err}
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, transport, q.Subreddit); err != nil {
		return nil, err
	}

	var listing models.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, &models.RetrievalError{
			Kind:      models.RetrievalMalformed,
			Subreddit: q.Subreddit,
			Transport: transport,
			Cause:     fmt.Errorf("failed to decode listing: %w", err),
		}
	}

	return &listing, nil
}

type redditErrorBody struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
	Error   int    `json:"error"`
}

// checkResponse maps Reddit statuses onto retrieval error kinds.
func checkResponse(resp *http.Response, transport, subreddit string) error {
	// Reddit redirects unknown communities to its community search page.
	if resp.Request != nil && resp.Request.URL != nil &&
		strings.HasPrefix(resp.Request.URL.Path, "/subreddits/search") {
		return &models.RetrievalError{
			Kind:      models.RetrievalNotFound,
			Subreddit: subreddit,
			Transport: transport,
			Status:    resp.StatusCode,
			Cause:     errors.New("redirected to subreddit search"),
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var rErr redditErrorBody
	_ = json.Unmarshal(body, &rErr)

	kind := models.RetrievalUpstream
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = models.RetrievalAuth
	case http.StatusForbidden:
		kind = models.RetrievalAuth
		if rErr.Reason == "private" || rErr.Reason == "banned" || rErr.Reason == "quarantined" {
			kind = models.RetrievalNotFound
		}
	case http.StatusNotFound:
		kind = models.RetrievalNotFound
	case http.StatusTooManyRequests:
		kind = models.RetrievalRateLimited
	}

	msg := rErr.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	return &models.RetrievalError{
		Kind:      kind,
		Subreddit: subreddit,
		Transport: transport,
		Status:    resp.StatusCode,
		Cause:     fmt.Errorf("reddit API error (%d): %s", resp.StatusCode, msg),
	}
}

// PublicTransport queries the unauthenticated JSON endpoint.
type PublicTransport struct {
	redditHTTP
	baseURL string
}

func NewPublicTransport(baseURL string, timeout time.Duration, userAgent string) *PublicTransport {
	if baseURL == "" {
		baseURL = RedditPublicBaseURL
	}
	return &PublicTransport{
		redditHTTP: newRedditHTTP(timeout, userAgent),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (t *PublicTransport) Name() string { return "public" }

func (t *PublicTransport) Search(ctx context.Context, q SearchQuery) (*models.Listing, error) {
	return t.getListing(ctx, t.Name(), publicSearchURL(t.baseURL, q), "", q)
}

func publicSearchURL(baseURL string, q SearchQuery) string {
	return fmt.Sprintf("%s/r/%s/search.json?%s", baseURL, url.PathEscape(q.Subreddit), q.values().Encode())
}

// RelayTransport fetches the public listing through a relay that takes the
// target address as its url parameter.
type RelayTransport struct {
	redditHTTP
	relayURL   string
	redditBase string
}

func NewRelayTransport(relayURL string, timeout time.Duration, userAgent string) *RelayTransport {
	return &RelayTransport{
		redditHTTP: newRedditHTTP(timeout, userAgent),
		relayURL:   relayURL,
		redditBase: RedditPublicBaseURL,
	}
}

func (t *RelayTransport) Name() string { return "relay" }

func (t *RelayTransport) Search(ctx context.Context, q SearchQuery) (*models.Listing, error) {
	relay, err := url.Parse(t.relayURL)
	if err != nil {
		return nil, &models.ConfigurationError{Message: "invalid REDDIT_RELAY_URL", Cause: err}
	}
	v := relay.Query()
	v.Set("url", publicSearchURL(t.redditBase, q))
	relay.RawQuery = v.Encode()

	return t.getListing(ctx, t.Name(), relay.String(), "", q)
}

// OAuthTransport queries the authenticated API with an app-only token.
type OAuthTransport struct {
	redditHTTP
	baseURL string
	tokens  *TokenCache
}

func NewOAuthTransport(baseURL string, tokens *TokenCache, timeout time.Duration, userAgent string) *OAuthTransport {
	if baseURL == "" {
		baseURL = RedditOAuthBaseURL
	}
	return &OAuthTransport{
		redditHTTP: newRedditHTTP(timeout, userAgent),
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

func (t *OAuthTransport) Name() string { return "oauth" }

func (t *OAuthTransport) Search(ctx context.Context, q SearchQuery) (*models.Listing, error) {
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return nil, &models.RetrievalError{Kind: models.RetrievalAuth, Subreddit: q.Subreddit, Transport: t.Name(), Cause: err}
	}

	rawURL := fmt.Sprintf("%s/r/%s/search?%s", t.baseURL, url.PathEscape(q.Subreddit), q.values().Encode())
	listing, err := t.getListing(ctx, t.Name(), rawURL, token, q)

	var rerr *models.RetrievalError
	if errors.As(err, &rerr) && rerr.Kind == models.RetrievalAuth && rerr.Status == http.StatusUnauthorized {
		// Revoked before expiry; the next call fetches a fresh token.
		t.tokens.Invalidate()
	}
	return listing, err
}

// ChainTransport tries each transport in order and returns the first success.
type ChainTransport struct {
	transports []SearchTransport
}

func NewChainTransport(transports ...SearchTransport) *ChainTransport {
	return &ChainTransport{transports: transports}
}

func (c *ChainTransport) Name() string {
	names := make([]string, 0, len(c.transports))
	for _, t := range c.transports {
		names = append(names, t.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *ChainTransport) Search(ctx context.Context, q SearchQuery) (*models.Listing, error) {
	if len(c.transports) == 0 {
		return nil, &models.ConfigurationError{Message: "no Reddit transports configured"}
	}

	var (
		errs []error
		last *models.RetrievalError
	)
	for _, t := range c.transports {
		listing, err := t.Search(ctx, q)
		if err == nil {
			return listing, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))

		var rerr *models.RetrievalError
		if errors.As(err, &rerr) {
			last = rerr
			// A different route to Reddit will not make the community exist.
			if rerr.NotFound() {
				return nil, err
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	kind := models.RetrievalUnreachable
	if last != nil {
		kind = last.Kind
	}
	return nil, &models.RetrievalError{
		Kind:      kind,
		Subreddit: q.Subreddit,
		Transport: c.Name(),
		Cause:     errors.Join(errs...),
	}
}
