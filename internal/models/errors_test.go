package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ValidationError{Field: "keyword", Message: "Keyword is required"}, http.StatusBadRequest},
		{"configuration", &ConfigurationError{Message: "API key is required"}, http.StatusUnprocessableEntity},
		{"not found", &RetrievalError{Kind: RetrievalNotFound}, http.StatusNotFound},
		{"wrapped upstream", fmt.Errorf("fetch: %w", &RetrievalError{Kind: RetrievalUpstream}), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Keyword is required", UserMessage(&ValidationError{Field: "keyword", Message: "Keyword is required"}))
	assert.Equal(t,
		"Subreddit r/nope was not found or is private. Please check the name and try again.",
		UserMessage(&RetrievalError{Kind: RetrievalNotFound, Subreddit: "nope"}))
	assert.Equal(t,
		"Failed to fetch posts from Reddit. Please check the subreddit name and try again.",
		UserMessage(&RetrievalError{Kind: RetrievalUnreachable}))
	assert.Equal(t, "An unexpected error occurred", UserMessage(errors.New("internal detail")))
}

func TestTransportKindForStatus(t *testing.T) {
	assert.Equal(t, TransportInvalidCredential, TransportKindForStatus(http.StatusUnauthorized))
	assert.Equal(t, TransportRateLimited, TransportKindForStatus(http.StatusTooManyRequests))
	assert.Equal(t, TransportUnavailable, TransportKindForStatus(http.StatusInternalServerError))
	assert.Equal(t, TransportUnavailable, TransportKindForStatus(http.StatusGatewayTimeout))
	assert.Equal(t, TransportOther, TransportKindForStatus(http.StatusBadRequest))
}

func TestClassificationTransportError_Retryable(t *testing.T) {
	retryable := []TransportKind{TransportRateLimited, TransportUnavailable, TransportTimeout, TransportNetwork}
	for _, k := range retryable {
		assert.True(t, (&ClassificationTransportError{Kind: k}).Retryable(), k)
	}
	assert.False(t, (&ClassificationTransportError{Kind: TransportInvalidCredential}).Retryable())
	assert.False(t, (&ClassificationTransportError{Kind: TransportOther}).Retryable())
}

func TestClassificationTransportError_UserMessageOther(t *testing.T) {
	err := &ClassificationTransportError{Kind: TransportOther, Status: 418, Message: "teapot"}
	assert.Equal(t, "API Error (418): teapot", err.UserMessage())

	cause := errors.New("tls handshake")
	err = &ClassificationTransportError{Kind: TransportOther, Cause: cause}
	assert.Equal(t, "API Error (0): tls handshake", err.UserMessage())
	assert.ErrorIs(t, err, cause)
}

func TestSearchResult(t *testing.T) {
	var nilResult *SearchResult
	assert.True(t, nilResult.Empty())
	assert.Equal(t, 0, nilResult.Opportunities())

	r := &SearchResult{Posts: []AnnotatedPost{
		{Analysis: OpportunityAnalysis{IsOpportunity: true}},
		{Analysis: OpportunityAnalysis{}},
		{Analysis: OpportunityAnalysis{IsOpportunity: true}},
	}}
	assert.False(t, r.Empty())
	assert.Equal(t, 2, r.Opportunities())
}

func TestSearchQuota(t *testing.T) {
	assert.Equal(t, 5, SearchQuota{Used: 0, Max: 5}.Remaining())
	assert.Equal(t, 0, SearchQuota{Used: 7, Max: 5}.Remaining())
	assert.True(t, SearchQuota{Used: 5, Max: 5}.Exhausted())
	assert.False(t, SearchQuota{Used: 4, Max: 5}.Exhausted())
}

func TestCandidatePost_RedditURL(t *testing.T) {
	assert.Equal(t, "https://reddit.com/r/a/comments/x/", CandidatePost{Permalink: "/r/a/comments/x/"}.RedditURL())
	assert.Equal(t, "https://old.reddit.com/x", CandidatePost{Permalink: "https://old.reddit.com/x"}.RedditURL())
	assert.Equal(t, "https://example.com", CandidatePost{URL: "https://example.com"}.RedditURL())
	assert.Equal(t, int64(1700000000), CandidatePost{CreatedUTC: 1700000000}.CreatedAt().Unix())
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0, ClampConfidence(-5))
	assert.Equal(t, 73, ClampConfidence(72.6))
	assert.Equal(t, 100, ClampConfidence(150))
	assert.Equal(t, 100, ClampConfidence(1e300))
	assert.Equal(t, 0, ClampConfidence(-1e300))
}
