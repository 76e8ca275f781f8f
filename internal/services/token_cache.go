package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenRefreshSkew is how long before expiry a cached token is treated as stale.
const TokenRefreshSkew = 60 * time.Second

// TokenFetcher obtains a fresh app-only token.
type TokenFetcher func(ctx context.Context) (*oauth2.Token, error)

// TokenCache holds the current Reddit access token. Concurrent refreshes are
// allowed to race; the last writer wins.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	fetch TokenFetcher
	now   func() time.Time
}

func NewTokenCache(fetch TokenFetcher) *TokenCache {
	return &TokenCache{fetch: fetch, now: time.Now}
}

// NewClientCredentialsCache builds a cache backed by Reddit's
// client-credentials grant.
func NewClientCredentialsCache(clientID, clientSecret, tokenURL, userAgent string, timeout time.Duration) (*TokenCache, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("reddit client id and secret are required for oauth transport")
	}
	if tokenURL == "" {
		tokenURL = RedditTokenURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: userAgentTransport{agent: userAgent, next: http.DefaultTransport},
	}

	return NewTokenCache(func(ctx context.Context) (*oauth2.Token, error) {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		return cc.Token(ctx)
	}), nil
}

// Token returns a valid token, fetching a new one if the cached one is
// missing or about to expire.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, expiresAt := c.token, c.expiresAt
	c.mu.RUnlock()

	if token != "" && c.now().Before(expiresAt) {
		return token, nil
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain reddit access token: %w", err)
	}
	if fresh == nil || fresh.AccessToken == "" {
		return "", errors.New("reddit token endpoint returned no access token")
	}

	expiry := fresh.Expiry
	if expiry.IsZero() {
		expiry = c.now().Add(time.Hour)
	}

	c.mu.Lock()
	c.token = fresh.AccessToken
	c.expiresAt = expiry.Add(-TokenRefreshSkew)
	c.mu.Unlock()

	return fresh.AccessToken, nil
}

// Invalidate drops the cached token.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}
