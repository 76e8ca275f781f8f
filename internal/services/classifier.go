package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

const (
	DefaultClassifierTimeout = 30 * time.Second
	DefaultBodyExcerptLimit  = 2000

	classifierTemperature = 0.1
	classifierMaxTokens   = 400
)

const systemPrompt = "You are a business analyst. Always respond with valid JSON only, no additional text."

const analysisPrompt = `Analyze this Reddit post for business opportunities. Return ONLY a valid JSON object with no additional text or formatting.

Required JSON format:
{
  "isOpportunity": true or false,
  "problem": "Brief problem description (max 80 words)",
  "solution": "Potential business solution (max 80 words)",
  "summary": "2-3 sentence summary (max 120 words)",
  "confidence": number from 0 to 100
}

Post Title: {title}
Post Content: {content}

Return only the JSON object:`

// ClassifierOptions tunes a Classifier. Zero values use the defaults.
type ClassifierOptions struct {
	Timeout          time.Duration
	BodyExcerptLimit int
	Concurrency      int
}

// Classifier asks a language model whether posts describe business
// opportunities.
type Classifier struct {
	completer   Completer
	timeout     time.Duration
	bodyLimit   int
	concurrency int
}

func NewClassifier(completer Completer, opts ClassifierOptions) *Classifier {
	c := &Classifier{
		completer:   completer,
		timeout:     opts.Timeout,
		bodyLimit:   opts.BodyExcerptLimit,
		concurrency: opts.Concurrency,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultClassifierTimeout
	}
	if c.bodyLimit <= 0 {
		c.bodyLimit = DefaultBodyExcerptLimit
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	return c
}

// Classify analyzes one post. A reply that cannot be parsed yields the
// fallback analysis and no error; transport failures return a
// *models.ClassificationTransportError.
func (c *Classifier) Classify(ctx context.Context, post models.CandidatePost, credential string) (models.OpportunityAnalysis, error) {
	if credential == "" {
		return models.NeutralAnalysis(), &models.ConfigurationError{Message: models.ErrMissingCredential.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.completer.Complete(ctx, CompletionRequest{
		System:      systemPrompt,
		Prompt:      c.buildPrompt(post),
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
	}, credential)
	if err != nil {
		var cerr *models.ConfigurationError
		if errors.As(err, &cerr) {
			return models.NeutralAnalysis(), err
		}
		return models.NeutralAnalysis(), transportError(err)
	}

	analysis, err := decodeAnalysis(reply)
	if err != nil {
		log.Printf("[classifier] post %s: unusable reply (%d bytes), using fallback: %v", post.ID, len(reply), err)
	}
	return analysis, nil
}

// ClassifyAll classifies at most MaxCandidates posts and returns them in
// input order. A failure on one post is recorded on that post only.
func (c *Classifier) ClassifyAll(ctx context.Context, posts []models.CandidatePost, credential string) ([]models.AnnotatedPost, error) {
	if credential == "" {
		return nil, &models.ConfigurationError{Message: models.ErrMissingCredential.Error()}
	}

	if len(posts) > MaxCandidates {
		posts = posts[:MaxCandidates]
	}
	results := make([]models.AnnotatedPost, len(posts))

	annotate := func(i int) {
		analysis, err := c.Classify(ctx, posts[i], credential)
		results[i] = models.AnnotatedPost{CandidatePost: posts[i], Analysis: analysis}
		if err != nil {
			results[i].AnalysisError = failureMessage(err)
			log.Printf("[classifier] post %s: %v", posts[i].ID, err)
		}
	}

	if c.concurrency == 1 {
		for i := range posts {
			annotate(i)
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := range posts {
		g.Go(func() error {
			annotate(i)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (c *Classifier) buildPrompt(post models.CandidatePost) string {
	return strings.NewReplacer(
		"{title}", post.Title,
		"{content}", truncateRunes(post.Body, c.bodyLimit),
	).Replace(analysisPrompt)
}

func failureMessage(err error) string {
	var (
		terr *models.ClassificationTransportError
		cerr *models.ConfigurationError
	)
	switch {
	case errors.As(err, &terr):
		return terr.UserMessage()
	case errors.As(err, &cerr):
		return cerr.Message
	default:
		return err.Error()
	}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
