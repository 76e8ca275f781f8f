package models

import "math"

// Placeholder text used when a classifier reply is missing a field or carries
// the wrong type for it.
const (
	DefaultProblem  = "Problem analysis unavailable"
	DefaultSolution = "Solution analysis unavailable"
	DefaultSummary  = "Summary unavailable"
)

// Fallback text used when the classifier reply could not be parsed at all.
const (
	FallbackProblem  = "Unable to analyze this post automatically"
	FallbackSolution = "Manual review recommended"
	FallbackSummary  = "The AI analysis could not be completed for this post. This may be due to formatting issues or content complexity."
)

// OpportunityAnalysis is the structured classification of one post.
// Every field is always populated; unknown values fall back to defaults.
type OpportunityAnalysis struct {
	IsOpportunity bool   `json:"isOpportunity"`
	Problem       string `json:"problem"`
	Solution      string `json:"solution"`
	Summary       string `json:"summary"`
	Confidence    int    `json:"confidence"`
}

// NeutralAnalysis is attached to posts whose classification call failed.
func NeutralAnalysis() OpportunityAnalysis {
	return OpportunityAnalysis{}
}

// FallbackAnalysis is returned when the model replied but nothing usable
// could be decoded from the reply.
func FallbackAnalysis() OpportunityAnalysis {
	return OpportunityAnalysis{
		IsOpportunity: false,
		Problem:       FallbackProblem,
		Solution:      FallbackSolution,
		Summary:       FallbackSummary,
		Confidence:    0,
	}
}

// ClampConfidence bounds a raw score to 0..100 before rounding it, so
// values outside the int range still land on the nearest bound.
func ClampConfidence(c float64) int {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return int(math.Round(c))
	}
}

// AnnotatedPost pairs a candidate with its analysis. AnalysisError is set
// only when the classification call itself failed.
type AnnotatedPost struct {
	CandidatePost
	Analysis      OpportunityAnalysis `json:"analysis"`
	AnalysisError string              `json:"analysisError,omitempty"`
}

// Failed reports whether the post could not be analyzed.
func (a AnnotatedPost) Failed() bool {
	return a.AnalysisError != ""
}

// SearchResult is what the search entry point hands to the presentation layer.
type SearchResult struct {
	Posts      []AnnotatedPost `json:"posts"`
	TotalFound int             `json:"totalFound"`
	Message    string          `json:"message,omitempty"`
}

// Empty reports whether no post survived filtering.
func (r *SearchResult) Empty() bool {
	return r == nil || len(r.Posts) == 0
}

// Opportunities counts posts the classifier flagged as viable.
func (r *SearchResult) Opportunities() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Posts {
		if p.Analysis.IsOpportunity {
			n++
		}
	}
	return n
}
