package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/ops"
	"github.com/hpungsan/sprout/internal/reflection"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "journal", "new", "insights"
	User    string
}

// LessonOption is one entry of a lesson select box.
type LessonOption struct {
	ID       string
	Title    string
	Selected bool
}

// ListPageData is the template data for the journal list page.
type ListPageData struct {
	PageData
	Items      []reflection.Entry
	Pagination ops.Pagination
	Stats      reflection.Stats
	Lesson     string
	Lessons    []LessonOption
}

// Answer is one question with its rendered answer.
type Answer struct {
	Question string
	HTML     template.HTML
}

// DetailPageData is the template data for the entry detail page.
type DetailPageData struct {
	PageData
	Entry       *ops.FetchOutput
	Answers     []Answer
	Investment  []Answer
	Feedback    *reflection.Feedback
	LessonTitle string
}

// NewPageData is the template data for the write form.
type NewPageData struct {
	PageData
	Lessons           []LessonOption
	QuestionPrompts   []reflection.Prompt
	InvestmentPrompts []reflection.Prompt
}

// InsightsPageData is the template data for the insights page.
type InsightsPageData struct {
	PageData
	Report *ops.InsightsOutput
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
// Dates are displayed in loc.
func NewRenderer(templateFS fs.FS, version string, loc *time.Location, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	funcMap := template.FuncMap{
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"formatDate":  func(t time.Time) string { return formatDate(t, loc) },
		"lessonTitle": func(id reflection.LessonID) string { return reflection.LessonTitle(id) },
		"scoreBand":   reflection.ScoreBand,
		"stars":       stars,
		"preview":     preview,
		"oneDecimal":  oneDecimal,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":     "list.html",
		"detail":   "detail.html",
		"new":      "new.html",
		"insights": "insights.html",
		"error":    "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

// page returns PageData stamped with the renderer version.
func (r *Renderer) page(title, nav, user string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav, User: user}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For HTMX requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && isHTMX(req) {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	sErr := errors.As(err)
	status := sErr.Status
	message := sErr.Message
	if sErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
		message = "an internal error occurred"
	}

	// HTMX request: return HTML fragment
	if isHTMX(req) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	if wantsJSON(req) {
		errorObj := map[string]any{
			"code":    string(sErr.Code),
			"message": message,
			"status":  status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		renderJSON(w, status, map[string]any{"error": errorObj})
		return
	}

	// Full error page
	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", status), "", req.FormValue("user")),
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// isHTMX reports whether req was issued by htmx.
func isHTMX(req *http.Request) bool {
	return req.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderMarkdown converts markdown text to HTML using goldmark. Raw HTML in
// the input is dropped by goldmark's default renderer.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatDate formats t as "2006-01-02 15:04" in loc.
func formatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// stars renders a 1..5 rating as filled and empty stars.
func stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// preview shortens s to n runes with an ellipsis.
func preview(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}

// oneDecimal formats an optional average.
func oneDecimal(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

// lessonOptions builds the select options with selected marked.
func lessonOptions(selected string, includeAll bool) []LessonOption {
	opts := make([]LessonOption, 0, len(reflection.Lessons)+1)
	if includeAll {
		opts = append(opts, LessonOption{ID: ops.LessonAll, Title: "All lessons", Selected: selected == "" || selected == ops.LessonAll})
	}
	for _, id := range reflection.Lessons {
		opts = append(opts, LessonOption{
			ID:       string(id),
			Title:    reflection.LessonTitle(id),
			Selected: string(id) == selected,
		})
	}
	return opts
}
