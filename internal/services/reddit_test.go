package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

type fakeTransport struct {
	listing *models.Listing
	err     error
	queries []SearchQuery
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Search(_ context.Context, q SearchQuery) (*models.Listing, error) {
	f.queries = append(f.queries, q)
	return f.listing, f.err
}

func listingOf(posts ...models.CandidatePost) *models.Listing {
	l := &models.Listing{Kind: "Listing"}
	for _, p := range posts {
		l.Data.Children = append(l.Data.Children, models.ListingChild{Kind: "t3", Data: p})
	}
	return l
}

var longBody = strings.Repeat("I keep running into this problem every week. ", 3)

func TestFetchCandidates_FiltersRanksAndTruncates(t *testing.T) {
	var posts []models.CandidatePost
	// 8 substantive posts with distinct upvotes
	for i, ups := range []int{5, 120, 40, 300, 8, 75, 19, 210} {
		posts = append(posts, models.CandidatePost{ID: fmt.Sprintf("ok%d", i), Title: "t", Body: longBody, Upvotes: ups})
	}
	// 4 that must be filtered regardless of votes
	posts = append(posts,
		models.CandidatePost{ID: "short", Body: "too short", Upvotes: 9999},
		models.CandidatePost{ID: "empty", Body: "", Upvotes: 9999},
		models.CandidatePost{ID: "removed", Body: longBody + "[removed]", Upvotes: 9999},
		models.CandidatePost{ID: "deleted", Body: "[deleted] " + longBody, Upvotes: 9999},
	)

	transport := &fakeTransport{listing: listingOf(posts...)}
	fetcher := NewRedditFetcher(transport, 25)

	got, err := fetcher.FetchCandidates(context.Background(), "smallbusiness", "problem", 0)
	require.NoError(t, err)
	require.Len(t, got, MaxCandidates)

	assert.Equal(t, 300, got[0].Upvotes)
	assert.Equal(t, 210, got[1].Upvotes)
	assert.Equal(t, 120, got[2].Upvotes)

	require.Len(t, transport.queries, 1)
	q := transport.queries[0]
	assert.Equal(t, "smallbusiness", q.Subreddit)
	assert.Equal(t, "problem", q.Keyword)
	assert.Equal(t, "top", q.Sort)
	assert.Equal(t, "week", q.Time)
	assert.Equal(t, 25, q.Limit)
	assert.True(t, q.RestrictSR)
}

func TestFetchCandidates_EmptyListingIsNotAnError(t *testing.T) {
	fetcher := NewRedditFetcher(&fakeTransport{listing: listingOf()}, 10)

	got, err := fetcher.FetchCandidates(context.Background(), "startups", "idea", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchCandidates_AllFilteredIsEmpty(t *testing.T) {
	fetcher := NewRedditFetcher(&fakeTransport{listing: listingOf(
		models.CandidatePost{ID: "a", Body: "short"},
		models.CandidatePost{ID: "b", Body: "[removed]"},
	)}, 10)

	got, err := fetcher.FetchCandidates(context.Background(), "startups", "idea", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchCandidates_FewerThanMax(t *testing.T) {
	fetcher := NewRedditFetcher(&fakeTransport{listing: listingOf(
		models.CandidatePost{ID: "a", Body: longBody, Upvotes: 1},
		models.CandidatePost{ID: "b", Body: longBody, Upvotes: 2},
	)}, 10)

	got, err := fetcher.FetchCandidates(context.Background(), "startups", "idea", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestFetchCandidates_TiesKeepListingOrder(t *testing.T) {
	fetcher := NewRedditFetcher(&fakeTransport{listing: listingOf(
		models.CandidatePost{ID: "first", Body: longBody, Upvotes: 10},
		models.CandidatePost{ID: "second", Body: longBody, Upvotes: 10},
		models.CandidatePost{ID: "third", Body: longBody, Upvotes: 10},
	)}, 10)

	got, err := fetcher.FetchCandidates(context.Background(), "startups", "idea", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestFetchCandidates_Idempotent(t *testing.T) {
	transport := &fakeTransport{listing: listingOf(
		models.CandidatePost{ID: "low", Body: longBody, Upvotes: 3},
		models.CandidatePost{ID: "high", Body: longBody, Upvotes: 90},
		models.CandidatePost{ID: "mid", Body: longBody, Upvotes: 40},
		models.CandidatePost{ID: "top", Body: longBody, Upvotes: 150},
	)}
	fetcher := NewRedditFetcher(transport, 10)

	first, err := fetcher.FetchCandidates(context.Background(), "startups", "idea", 10)
	require.NoError(t, err)
	second, err := fetcher.FetchCandidates(context.Background(), "startups", "idea", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"top", "high", "mid"}, []string{second[0].ID, second[1].ID, second[2].ID})
	assert.Len(t, transport.queries, 2)
}

func TestFetchCandidates_MaxResultsClamped(t *testing.T) {
	transport := &fakeTransport{listing: listingOf()}
	fetcher := NewRedditFetcher(transport, 0)

	_, err := fetcher.FetchCandidates(context.Background(), "startups", "idea", 500)
	require.NoError(t, err)
	_, err = fetcher.FetchCandidates(context.Background(), "startups", "idea", -1)
	require.NoError(t, err)

	assert.Equal(t, MaxSearchResults, transport.queries[0].Limit)
	assert.Equal(t, DefaultSearchResults, transport.queries[1].Limit)
}

func TestFetchCandidates_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		community string
		keyword   string
		field     string
	}{
		{"empty community", "", "idea", "subreddit"},
		{"community with spaces", "small business", "idea", "subreddit"},
		{"community too short", "a", "idea", "subreddit"},
		{"empty keyword", "startups", "   ", "keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{listing: listingOf()}
			fetcher := NewRedditFetcher(transport, 10)

			_, err := fetcher.FetchCandidates(context.Background(), tt.community, tt.keyword, 10)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, transport.queries, "transport must not be called")
		})
	}
}

func TestFetchCandidates_RetrievalErrorPropagates(t *testing.T) {
	cause := &models.RetrievalError{Kind: models.RetrievalNotFound, Subreddit: "nope"}
	fetcher := NewRedditFetcher(&fakeTransport{err: cause}, 10)

	_, err := fetcher.FetchCandidates(context.Background(), "nope", "idea", 10)

	var rerr *models.RetrievalError
	require.True(t, errors.As(err, &rerr))
	assert.True(t, rerr.NotFound())
}

func TestIsSubstantive(t *testing.T) {
	assert.False(t, isSubstantive(strings.Repeat("x", 50)))
	assert.True(t, isSubstantive(strings.Repeat("x", 51)))
	// rune count, not bytes
	assert.False(t, isSubstantive(strings.Repeat("é", 50)))
	assert.False(t, isSubstantive(strings.Repeat("x", 60)+"[deleted]"))
}
