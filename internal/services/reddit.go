package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

const (
	// MaxCandidates is how many posts survive ranking and get classified.
	MaxCandidates = 3

	DefaultSearchResults = 10
	MaxSearchResults     = 100

	minBodyLength = 50
)

var removedMarkers = []string{"[removed]", "[deleted]"}

// RedditFetcher runs one keyword search per request and returns the few
// posts worth classifying.
type RedditFetcher struct {
	transport  SearchTransport
	maxResults int
}

func NewRedditFetcher(transport SearchTransport, maxResults int) *RedditFetcher {
	return &RedditFetcher{
		transport:  transport,
		maxResults: maxResults,
	}
}

// FetchCandidates searches the community for the keyword over the past week
// and returns at most MaxCandidates posts ordered by upvotes. An empty slice
// is a valid result.
func (f *RedditFetcher) FetchCandidates(ctx context.Context, community, keyword string, maxResults int) ([]models.CandidatePost, error) {
	community = strings.TrimSpace(community)
	keyword = strings.TrimSpace(keyword)

	if community == "" || !models.SubredditPattern.MatchString(community) {
		return nil, &models.ValidationError{Field: "subreddit", Message: models.ErrInvalidSubreddit.Error()}
	}
	if keyword == "" {
		return nil, &models.ValidationError{Field: "keyword", Message: models.ErrEmptyKeyword.Error()}
	}

	if maxResults <= 0 {
		maxResults = f.maxResults
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}
	if maxResults > MaxSearchResults {
		maxResults = MaxSearchResults
	}

	listing, err := f.transport.Search(ctx, SearchQuery{
		Subreddit:  community,
		Keyword:    keyword,
		Sort:       "top",
		Time:       "week",
		Limit:      maxResults,
		RestrictSR: true,
	})
	if err != nil {
		return nil, err
	}

	raw := listing.Posts()
	candidates := rankByUpvotes(filterCandidates(raw))
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}

	log.Printf("[reddit] r/%s: %d fetched, %d candidates via %s", community, len(raw), len(candidates), f.transport.Name())
	return candidates, nil
}

// filterCandidates drops posts without a substantive, still-present body.
func filterCandidates(posts []models.CandidatePost) []models.CandidatePost {
	kept := make([]models.CandidatePost, 0, len(posts))
	for _, p := range posts {
		if isSubstantive(p.Body) {
			kept = append(kept, p)
		}
	}
	return kept
}

func isSubstantive(body string) bool {
	if utf8.RuneCountInString(body) <= minBodyLength {
		return false
	}
	for _, marker := range removedMarkers {
		if strings.Contains(body, marker) {
			return false
		}
	}
	return true
}

// rankByUpvotes sorts by descending upvotes, keeping listing order on ties.
func rankByUpvotes(posts []models.CandidatePost) []models.CandidatePost {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Upvotes > posts[j].Upvotes
	})
	return posts
}
