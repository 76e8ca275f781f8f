package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/rahul4469/opportunity-finder/internal/middleware"
	"github.com/rahul4469/opportunity-finder/internal/views"
)

// maxJSONBody bounds API request bodies.
const maxJSONBody = 64 << 10

// pageData fills the fields every page needs.
func pageData(r *http.Request, title string) *views.TemplateData {
	quota := middleware.CurrentQuota(r)
	return &views.TemplateData{
		Title:             title,
		CSRFField:         csrf.TemplateField(r),
		SearchesRemaining: quota.Remaining(),
		MaxSearches:       quota.Max,
	}
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.New("Content-Type must be application/json")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}
