package web

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/ops"
	"github.com/hpungsan/sprout/internal/reflection"
)

// maxFormBytes bounds a write request body.
const maxFormBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	repo     reflection.Repository
	gen      ops.FeedbackGenerator
	cfg      *config.Config
	renderer *Renderer
}

// listResponse is the JSON shape of GET /journal.
type listResponse struct {
	*ops.ListOutput
	Stats reflection.Stats `json:"stats"`
}

// writeRequest is the JSON body accepted by POST /journal. Field names follow
// the entry wire format.
type writeRequest struct {
	User                 string                           `json:"user"`
	LessonID             string                           `json:"lessonId"`
	Questions            reflection.Questions             `json:"questions"`
	InvestmentReflection *reflection.InvestmentReflection `json:"investmentReflection"`
	Rating               int                              `json:"rating"`
}

// HandleList handles GET /journal: a user's entries with summary stats.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	lesson := r.URL.Query().Get("lesson")

	data := ListPageData{
		PageData: h.renderer.page("Journal", "journal", user),
		Items:    []reflection.Entry{},
		Lesson:   lesson,
		Lessons:  lessonOptions(lesson, true),
	}

	// Without a user the page only shows the user picker
	if user == "" && !wantsJSON(r) {
		h.renderer.renderPage(w, r, "list", data)
		return
	}

	result, err := ops.List(r.Context(), h.repo, ops.ListInput{
		User:   user,
		Lesson: lesson,
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	report, err := ops.Insights(r.Context(), h.repo, ops.InsightsInput{User: user, Location: h.cfg.Location()})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, listResponse{ListOutput: result, Stats: report.Stats})
		return
	}

	data.Items = result.Items
	data.Pagination = result.Pagination
	data.Stats = report.Stats
	h.renderer.renderPage(w, r, "list", data)
}

// HandleNew handles GET /journal/new: the write form.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	lesson := r.URL.Query().Get("lesson")
	if lesson == "" {
		lesson = string(reflection.LessonGeneral)
	}

	h.renderer.renderPage(w, r, "new", NewPageData{
		PageData:          h.renderer.page("New reflection", "new", user),
		Lessons:           lessonOptions(lesson, false),
		QuestionPrompts:   reflection.QuestionPrompts,
		InvestmentPrompts: reflection.InvestmentPrompts,
	})
}

// HandleWrite handles POST /journal: create an entry from a form or JSON body.
func (h *Handlers) HandleWrite(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	input, err := parseWriteInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Write(r.Context(), h.repo, h.gen, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, result)
		return
	}

	target := detailURL(input.User, result.Entry.ID)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusCreated)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleInsights handles GET /journal/insights: streak, trends and keywords.
func (h *Handlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))

	report, err := ops.Insights(r.Context(), h.repo, ops.InsightsInput{User: user, Location: h.cfg.Location()})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, report)
		return
	}

	h.renderer.renderPage(w, r, "insights", InsightsPageData{
		PageData: h.renderer.page("Insights", "insights", user),
		Report:   report,
	})
}

// HandleDetail handles GET /journal/{id}: one entry with its feedback.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))

	entry, err := ops.Fetch(r.Context(), h.repo, ops.FetchInput{User: user, ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, entry)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:    h.renderer.page(entry.LessonTitle, "journal", user),
		Entry:       entry,
		Answers:     questionAnswers(entry.Questions),
		Investment:  investmentAnswers(entry.InvestmentReflection),
		Feedback:    entry.Feedback,
		LessonTitle: entry.LessonTitle,
	})
}

// HandleRegenerate handles POST /journal/{id}/feedback: replace an entry's feedback.
func (h *Handlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.FormValue("user"))
	id := r.PathValue("id")

	result, err := ops.Regenerate(r.Context(), h.repo, h.gen, h.cfg, ops.RegenerateInput{User: user, ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	target := detailURL(user, id)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleDelete handles DELETE /journal/{id}: remove an entry.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))

	result, err := ops.Delete(r.Context(), h.repo, h.cfg, ops.DeleteInput{User: user, ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", listURL(user))
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, listURL(user), http.StatusFound)
}

// parseWriteInput reads a write request from a JSON body or form fields.
func parseWriteInput(r *http.Request) (ops.WriteInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req writeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ops.WriteInput{}, errors.NewInvalidRequest("invalid JSON body: " + err.Error())
		}
		return ops.WriteInput{
			User:                 req.User,
			LessonID:             req.LessonID,
			Questions:            req.Questions,
			InvestmentReflection: req.InvestmentReflection,
			Rating:               req.Rating,
			Now:                  time.Now(),
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return ops.WriteInput{}, errors.NewInvalidRequest("invalid form data")
	}

	rating := 0
	if s := strings.TrimSpace(r.PostFormValue("rating")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return ops.WriteInput{}, errors.NewInvalidRequest("rating must be an integer")
		}
		rating = v
	}

	return ops.WriteInput{
		User:     r.PostFormValue("user"),
		LessonID: r.PostFormValue("lessonId"),
		Questions: reflection.Questions{
			WhatLearned:   r.PostFormValue("whatLearned"),
			WhatDifficult: r.PostFormValue("whatDifficult"),
			HowApply:      r.PostFormValue("howApply"),
			NextGoal:      r.PostFormValue("nextGoal"),
		},
		InvestmentReflection: &reflection.InvestmentReflection{
			Decision:    r.PostFormValue("decision"),
			Reasoning:   r.PostFormValue("reasoning"),
			Outcome:     r.PostFormValue("outcome"),
			WouldChange: r.PostFormValue("wouldChange"),
		},
		Rating: rating,
		Now:    time.Now(),
	}, nil
}

// questionAnswers pairs each reflection prompt with its rendered answer,
// skipping unanswered questions.
func questionAnswers(q reflection.Questions) []Answer {
	values := map[string]string{
		"whatLearned":   q.WhatLearned,
		"whatDifficult": q.WhatDifficult,
		"howApply":      q.HowApply,
		"nextGoal":      q.NextGoal,
	}
	return answers(reflection.QuestionPrompts, values)
}

func investmentAnswers(inv *reflection.InvestmentReflection) []Answer {
	if inv == nil {
		return nil
	}
	values := map[string]string{
		"decision":    inv.Decision,
		"reasoning":   inv.Reasoning,
		"outcome":     inv.Outcome,
		"wouldChange": inv.WouldChange,
	}
	return answers(reflection.InvestmentPrompts, values)
}

func answers(prompts []reflection.Prompt, values map[string]string) []Answer {
	out := make([]Answer, 0, len(prompts))
	for _, p := range prompts {
		v := strings.TrimSpace(values[p.Field])
		if v == "" {
			continue
		}
		out = append(out, Answer{Question: p.Question, HTML: renderMarkdown(v)})
	}
	return out
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func listURL(user string) string {
	return "/journal?user=" + url.QueryEscape(user)
}

func detailURL(user, id string) string {
	return "/journal/" + url.PathEscape(id) + "?user=" + url.QueryEscape(user)
}
