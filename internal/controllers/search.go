package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/rahul4469/opportunity-finder/internal/middleware"
	"github.com/rahul4469/opportunity-finder/internal/models"
	"github.com/rahul4469/opportunity-finder/internal/views"
)

// Searcher runs the fetch-then-classify pipeline.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
}

// SearchController handles form and JSON searches.
type SearchController struct {
	searcher  Searcher
	quota     *middleware.QuotaMiddleware
	templates SearchTemplates
}

// SearchTemplates holds the templates for search pages.
type SearchTemplates struct {
	Form    *views.Template
	Results *views.Template
}

// NewSearchController creates a new SearchController.
func NewSearchController(searcher Searcher, quota *middleware.QuotaMiddleware, templates SearchTemplates) *SearchController {
	return &SearchController{
		searcher:  searcher,
		quota:     quota,
		templates: templates,
	}
}

// ResultsData holds data for the results template.
type ResultsData struct {
	Subreddit string
	Keyword   string
	Result    *models.SearchResult
}

// PostSearch handles the search form submission.
func (c *SearchController) PostSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.renderFormError(w, r, SearchFormData{}, http.StatusBadRequest, "Invalid form data")
		return
	}

	req := models.SearchRequest{
		Subreddit: r.FormValue("subreddit"),
		Keyword:   r.FormValue("keyword"),
		APIKey:    r.FormValue("mistralApiKey"),
	}
	req.Normalize()

	result, err := c.searcher.Search(r.Context(), req)
	if err != nil {
		form := SearchFormData{Subreddit: req.Subreddit, Keyword: req.Keyword}
		c.renderFormError(w, r, form, models.HTTPStatus(err), models.UserMessage(err))
		return
	}

	quota := c.quota.Increment(w, r)

	data := pageData(r, "Results - Opportunity Finder")
	data.SearchesRemaining = quota.Remaining()
	data.Data = ResultsData{
		Subreddit: req.Subreddit,
		Keyword:   req.Keyword,
		Result:    result,
	}
	if quota.Exhausted() {
		data.Info = "That was your last search this session. We'd love your feedback."
	}

	c.templates.Results.ExecuteHTTP(w, r, data)
}

func (c *SearchController) renderFormError(w http.ResponseWriter, r *http.Request, form SearchFormData, status int, msg string) {
	data := pageData(r, "Opportunity Finder - Reddit Business Ideas")
	data.Error = msg
	data.Data = form
	c.templates.Form.ExecuteHTTPWithStatus(w, r, status, data)
}

// searchAPIResponse mirrors models.SearchResult with an always-present posts array.
type searchAPIResponse struct {
	Posts      []models.AnnotatedPost `json:"posts"`
	TotalFound int                    `json:"totalFound"`
	Message    string                 `json:"message,omitempty"`
	Remaining  int                    `json:"searchesRemaining"`
}

// PostSearchAPI handles JSON searches.
func (c *SearchController) PostSearchAPI(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	req.Normalize()

	result, err := c.searcher.Search(r.Context(), req)
	if err != nil {
		status := models.HTTPStatus(err)
		if status == http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
			log.Printf("[api] search failed: %v", err)
		}
		renderJSON(w, status, errorResponse{Error: models.UserMessage(err)})
		return
	}

	quota := c.quota.Increment(w, r)

	posts := result.Posts
	if posts == nil {
		posts = []models.AnnotatedPost{}
	}
	renderJSON(w, http.StatusOK, searchAPIResponse{
		Posts:      posts,
		TotalFound: result.TotalFound,
		Message:    result.Message,
		Remaining:  quota.Remaining(),
	})
}
