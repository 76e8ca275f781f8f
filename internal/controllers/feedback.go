package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/rahul4469/opportunity-finder/internal/models"
	"github.com/rahul4469/opportunity-finder/internal/views"
)

// FeedbackSink receives validated feedback.
type FeedbackSink interface {
	Record(entry FeedbackEntry) error
}

// FeedbackEntry is one feedback submission.
type FeedbackEntry struct {
	Email     string    `json:"email"`
	Feedback  string    `json:"feedback"`
	Timestamp time.Time `json:"timestamp"`
}

// LogFeedbackSink writes feedback to the server log.
type LogFeedbackSink struct{}

func (LogFeedbackSink) Record(entry FeedbackEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	log.Printf("[feedback] %s", b)
	return nil
}

// FeedbackController handles the beta feedback form and API.
type FeedbackController struct {
	sink      FeedbackSink
	templates FeedbackTemplates
	now       func() time.Time
}

// FeedbackTemplates holds the feedback page template.
type FeedbackTemplates struct {
	Form *views.Template
}

// NewFeedbackController creates a new FeedbackController.
func NewFeedbackController(sink FeedbackSink, templates FeedbackTemplates) *FeedbackController {
	if sink == nil {
		sink = LogFeedbackSink{}
	}
	return &FeedbackController{
		sink:      sink,
		templates: templates,
		now:       time.Now,
	}
}

// FeedbackFormData holds data for the feedback template.
type FeedbackFormData struct {
	Email        string
	Feedback     string
	LimitReached bool
	Submitted    bool
}

// GetFeedback renders the feedback form.
func (c *FeedbackController) GetFeedback(w http.ResponseWriter, r *http.Request) {
	data := pageData(r, "Feedback - Opportunity Finder")
	data.Data = FeedbackFormData{
		LimitReached: r.URL.Query().Get("limit") == "1",
	}
	c.templates.Form.ExecuteHTTP(w, r, data)
}

// PostFeedback handles the feedback form submission.
func (c *FeedbackController) PostFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.renderForm(w, r, http.StatusBadRequest, FeedbackFormData{}, "Invalid form data")
		return
	}

	req := models.FeedbackRequest{
		Email:    r.FormValue("email"),
		Feedback: r.FormValue("feedback"),
	}
	if err := c.submit(&req); err != nil {
		form := FeedbackFormData{Email: req.Email, Feedback: req.Feedback}
		c.renderForm(w, r, models.HTTPStatus(err), form, models.UserMessage(err))
		return
	}

	data := pageData(r, "Feedback - Opportunity Finder")
	data.Data = FeedbackFormData{Submitted: true}
	c.templates.Form.ExecuteHTTP(w, r, data)
}

type feedbackAPIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PostFeedbackAPI handles JSON feedback.
func (c *FeedbackController) PostFeedbackAPI(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := c.submit(&req); err != nil {
		renderJSON(w, models.HTTPStatus(err), errorResponse{Error: models.UserMessage(err)})
		return
	}

	renderJSON(w, http.StatusOK, feedbackAPIResponse{
		Success: true,
		Message: "Feedback received successfully",
	})
}

func (c *FeedbackController) submit(req *models.FeedbackRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.sink.Record(FeedbackEntry{
		Email:     req.Email,
		Feedback:  req.Feedback,
		Timestamp: c.now().UTC(),
	})
}

func (c *FeedbackController) renderForm(w http.ResponseWriter, r *http.Request, status int, form FeedbackFormData, msg string) {
	data := pageData(r, "Feedback - Opportunity Finder")
	data.Error = msg
	data.Data = form
	c.templates.Form.ExecuteHTTPWithStatus(w, r, status, data)
}
