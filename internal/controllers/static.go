package controllers

import (
	"net/http"

	"github.com/rahul4469/opportunity-finder/internal/views"
)

// StaticController serves the landing page with the search form.
type StaticController struct {
	templates StaticTemplates
}

// StaticTemplates holds templates for static pages.
type StaticTemplates struct {
	Home *views.Template
}

// NewStaticController creates a new StaticController.
func NewStaticController(templates StaticTemplates) *StaticController {
	return &StaticController{
		templates: templates,
	}
}

// SearchFormData pre-fills the search form. The API key is never echoed back.
type SearchFormData struct {
	Subreddit string
	Keyword   string
}

// GetHome renders the search form.
func (c *StaticController) GetHome(w http.ResponseWriter, r *http.Request) {
	data := pageData(r, "Opportunity Finder - Reddit Business Ideas")
	data.Description = "Find business opportunities in Reddit discussions."
	data.Data = SearchFormData{
		Subreddit: r.URL.Query().Get("subreddit"),
		Keyword:   r.URL.Query().Get("keyword"),
	}

	switch data.SearchesRemaining {
	case 0:
		data.Warning = "You have used all your searches for this session."
	case 1:
		data.Info = "This is your last search for this session."
	}

	c.templates.Home.ExecuteHTTP(w, r, data)
}

// HealthCheck returns a simple health status for monitoring.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
