package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

// Template wraps a parsed template with helper methods for rendering.
type Template struct {
	tmpl *template.Template
}

// TemplateData is the standard data structure passed to all templates.
type TemplateData struct {
	// CSRF field for forms
	CSRFField template.HTML

	// Searches left this session
	SearchesRemaining int
	MaxSearches       int

	// Flash messages
	Error   string
	Success string
	Warning string
	Info    string

	// Page-specific data
	Data any

	Title       string
	Description string

	CurrentPath string

	IsDevelopment bool
}

// DefaultFuncMap returns the functions available in all templates.
func DefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"trim":     strings.TrimSpace,
		"truncate": truncate,

		"formatDate": formatDate,
		"formatUnix": formatUnix,
		"timeAgo":    timeAgo,

		"formatNumber": formatNumber,

		"confidenceClass": confidenceClass,
		"confidenceLabel": confidenceLabel,

		"markdown": renderMarkdown,

		"default": defaultValue,
	}
}

// ParseFS parses the base layout, every partial, then the given pages from
// fsys. Paths are relative to the root of fsys.
func ParseFS(fsys fs.FS, patterns ...string) (*Template, error) {
	tmpl := template.New("").Funcs(DefaultFuncMap())

	baseContent, err := fs.ReadFile(fsys, "layouts/base.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to read base template: %w", err)
	}
	if tmpl, err = tmpl.Parse(string(baseContent)); err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}

	// Partials define their own names with {{define "name"}}
	partialMatches, err := fs.Glob(fsys, "partials/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to glob partials: %w", err)
	}

	for _, match := range partialMatches {
		content, err := fs.ReadFile(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("failed to read partial %s: %w", match, err)
		}
		if tmpl, err = tmpl.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", match, err)
		}
	}

	// Pages define {{define "content"}}
	for _, pattern := range patterns {
		content, err := fs.ReadFile(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", pattern, err)
		}
		if tmpl, err = tmpl.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", pattern, err)
		}
	}

	return &Template{tmpl: tmpl}, nil
}

// MustParseFS is like ParseFS but panics on error.
func MustParseFS(fsys fs.FS, patterns ...string) *Template {
	tmpl, err := ParseFS(fsys, patterns...)
	if err != nil {
		panic(fmt.Sprintf("failed to parse templates: %v", err))
	}
	return tmpl
}

// Execute renders the template to the given writer with the provided data.
func (t *Template) Execute(w io.Writer, data *TemplateData) error {
	return t.tmpl.ExecuteTemplate(w, "base", data)
}

// ExecuteHTTP renders the template as a 200 response.
func (t *Template) ExecuteHTTP(w http.ResponseWriter, r *http.Request, data *TemplateData) {
	t.ExecuteHTTPWithStatus(w, r, http.StatusOK, data)
}

// ExecuteHTTPWithStatus renders the template with a custom HTTP status code.
// Output is buffered so a template error never leaves a half-written page.
func (t *Template) ExecuteHTTPWithStatus(w http.ResponseWriter, r *http.Request, status int, data *TemplateData) {
	if data != nil {
		data.CurrentPath = r.URL.Path
	}

	buf := &bytes.Buffer{}
	if err := t.Execute(buf, data); err != nil {
		log.Printf("Template execution error: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// truncate shortens s to at most length runes, ending in an ellipsis.
func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length <= 3 {
		return string(r[:length])
	}
	return strings.TrimSpace(string(r[:length-3])) + "..."
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// formatUnix formats Reddit's created_utc seconds.
func formatUnix(secs float64) string {
	return formatDate(time.Unix(int64(secs), 0).UTC())
}

func timeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return plural(days, "day")
	default:
		return formatDate(t)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// confidenceClass colours a 0..100 confidence score.
func confidenceClass(confidence int) string {
	switch {
	case confidence >= 80:
		return "text-green-600"
	case confidence >= 60:
		return "text-yellow-600"
	default:
		return "text-red-600"
	}
}

func confidenceLabel(confidence int) string {
	switch {
	case confidence >= 80:
		return "High"
	case confidence >= 60:
		return "Medium"
	default:
		return "Low"
	}
}

// renderMarkdown converts a Reddit post body to HTML. goldmark drops raw
// HTML by default, so the output is safe to embed.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func defaultValue(value, defaultVal any) any {
	if value == nil || value == "" || value == 0 {
		return defaultVal
	}
	return value
}
