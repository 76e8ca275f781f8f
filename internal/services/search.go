package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

// NoResultsMessage is returned when no post survives filtering.
const NoResultsMessage = "No posts found for the given keyword in this subreddit. Try different keywords or subreddit."

// CandidateFetcher finds posts worth classifying.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context, community, keyword string, maxResults int) ([]models.CandidatePost, error)
}

// PostClassifier annotates candidates with an opportunity analysis.
type PostClassifier interface {
	ClassifyAll(ctx context.Context, posts []models.CandidatePost, credential string) ([]models.AnnotatedPost, error)
}

// SearchService is the search entry point: fetch, then classify.
type SearchService struct {
	fetcher    CandidateFetcher
	classifier PostClassifier
	maxResults int
}

func NewSearchService(fetcher CandidateFetcher, classifier PostClassifier, maxResults int) *SearchService {
	return &SearchService{
		fetcher:    fetcher,
		classifier: classifier,
		maxResults: maxResults,
	}
}

// Search runs one search. A retrieval failure aborts the whole request;
// classification failures are carried on the individual posts.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	start := time.Now()
	log.Printf("[search %s] %s", requestID, req)

	candidates, err := s.fetcher.FetchCandidates(ctx, req.Subreddit, req.Keyword, s.maxResults)
	if err != nil {
		log.Printf("[search %s] fetch failed: %v", requestID, err)
		return nil, err
	}

	if len(candidates) == 0 {
		log.Printf("[search %s] no candidates", requestID)
		return &models.SearchResult{
			Posts:   []models.AnnotatedPost{},
			Message: NoResultsMessage,
		}, nil
	}

	annotated, err := s.classifier.ClassifyAll(ctx, candidates, req.APIKey)
	if err != nil {
		log.Printf("[search %s] classification aborted: %v", requestID, err)
		return nil, err
	}

	result := &models.SearchResult{
		Posts:      annotated,
		TotalFound: len(candidates),
	}
	log.Printf("[search %s] %d posts, %d opportunities in %s", requestID, len(annotated), result.Opportunities(), time.Since(start).Round(time.Millisecond))
	return result, nil
}
