package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/exam"
	"github.com/p-n-ai/pai-dojo/internal/mastery"
	"github.com/p-n-ai/pai-dojo/internal/report"
	"github.com/p-n-ai/pai-dojo/internal/subject"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout      = "2006-01-02"
	readyTimeout    = 2 * time.Second
)

// routes creates the HTTP router.
func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.HandleFunc("GET /v1/tiers", a.handleTiers)
	mux.HandleFunc("GET /v1/tiers/{tier}/progress", a.handleProgress)
	mux.HandleFunc("GET /v1/tiers/{tier}/progress.xlsx", a.handleProgressXLSX)
	mux.HandleFunc("PUT /v1/tiers/{tier}/mastery", a.handleSetMastery)
	mux.HandleFunc("DELETE /v1/tiers/{tier}/mastery", a.handleClearMastery)

	mux.HandleFunc("GET /v1/subjects", a.handleSubjects)
	mux.HandleFunc("GET /v1/subjects/{id}", a.handleSubject)

	mux.HandleFunc("GET /v1/tiers/{tier}/exam/exercises", a.handleExercises)
	mux.HandleFunc("GET /v1/tiers/{tier}/exam/drafts/{trainee}", a.handleGetDraft)
	mux.HandleFunc("PUT /v1/tiers/{tier}/exam/drafts/{trainee}", a.handleSaveDraft)
	mux.HandleFunc("DELETE /v1/tiers/{tier}/exam/drafts/{trainee}", a.handleDiscardDraft)
	mux.HandleFunc("GET /v1/tiers/{tier}/exam/drafts/{trainee}/export.xlsx", a.handleExportDraft)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for _, c := range a.checks {
		if err := c.check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.name, "error", err)
			failed[c.name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type tierSummary struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Rank   int      `json:"rank"`
	Topics []string `json:"topics"`
}

func (a *app) handleTiers(w http.ResponseWriter, r *http.Request) {
	tiers := a.catalog.ListTiers()
	out := make([]tierSummary, 0, len(tiers))
	for _, t := range tiers {
		ts := tierSummary{ID: t.ID, Label: t.Label, Rank: t.Rank, Topics: []string{}}
		for _, topic := range t.Topics {
			ts.Topics = append(ts.Topics, topic.Title)
		}
		out = append(out, ts)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *app) handleProgress(w http.ResponseWriter, r *http.Request) {
	tier, ok := a.tier(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.progress.ComputeTier(tier.ID, r.URL.Query()["topic"]...))
}

func (a *app) handleProgressXLSX(w http.ResponseWriter, r *http.Request) {
	tier, ok := a.tier(w, r)
	if !ok {
		return
	}
	tp := a.progress.ComputeTier(tier.ID, r.URL.Query()["topic"]...)

	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, tp); err != nil {
		writeError(w, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("progress-%s.xlsx", tier.ID), buf.Bytes())
}

type masteryRequest struct {
	Topic  string `json:"topic"`
	Item   string `json:"item"`
	Status string `json:"status"`
}

func (a *app) handleSetMastery(w http.ResponseWriter, r *http.Request) {
	tier, ok := a.tier(w, r)
	if !ok {
		return
	}

	var req masteryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	status, err := mastery.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Writes go under the catalog title, the key every read tries.
	topic, ok := curriculum.FindTopic(a.catalog, tier.ID, req.Topic)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("unknown topic"))
		return
	}

	id := a.canon.Resolve(tier.ID, topic.Title, req.Item)
	if err := a.status.SetStatus(tier.ID, topic.Title, id, status); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":   tier.ID,
		"topic":  topic.Title,
		"item":   id,
		"status": status,
	})
}

func (a *app) handleClearMastery(w http.ResponseWriter, r *http.Request) {
	tier, ok := a.tier(w, r)
	if !ok {
		return
	}
	topic := r.URL.Query().Get("topic")
	if t, ok := curriculum.FindTopic(a.catalog, tier.ID, topic); ok {
		topic = t.Title
	}
	if err := a.status.ClearTopic(tier.ID, topic); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type subjectSummary struct {
	subject.Subject
	Defense bool `json:"defense"`
	Count   int  `json:"count"`
}

func (a *app) handleSubjects(w http.ResponseWriter, r *http.Request) {
	all := a.subjects.All()
	out := make([]subjectSummary, 0, len(all))
	for _, s := range all {
		out = append(out, subjectSummary{Subject: s, Defense: a.filter.IsDefense(s), Count: a.filter.CountItems(s)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *app) handleSubject(w http.ResponseWriter, r *http.Request) {
	s, err := a.subjects.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	body := map[string]any{
		"subject": subjectSummary{Subject: s, Defense: a.filter.IsDefense(s), Count: a.filter.CountItems(s)},
	}

	if key := r.URL.Query().Get("tier"); key != "" {
		tier, ok := curriculum.FindTier(a.catalog, key)
		if !ok {
			writeError(w, fmt.Errorf("%w: %s", curriculum.ErrUnknownTier, key))
			return
		}
		var groups []subject.TopicItems
		if pick := r.URL.Query().Get("pick"); pick != "" {
			if groups, err = a.filter.ResolvePick(tier.ID, s, pick); err != nil {
				writeError(w, err)
				return
			}
		} else {
			groups = a.filter.ResolveItems(tier.ID, s)
		}
		body["tier"] = tier.ID
		body["topics"] = groups
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *app) handleExercises(w http.ResponseWriter, r *http.Request) {
	tier, exercises, err := a.exams.Exercises(r.PathValue("tier"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":      tier.ID,
		"weights":   a.exams.Weights(),
		"exercises": exercises,
	})
}

type sessionResponse struct {
	*exam.Session
	Score exam.Score `json:"score"`
	Draft bool       `json:"draft"`
}

func (a *app) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	trainee, tier := r.PathValue("trainee"), r.PathValue("tier")
	s, err := a.exams.Start(trainee, tier, examDate(r), exam.Resume)
	if err != nil {
		writeError(w, err)
		return
	}
	draft, err := a.exams.HasDraft(trainee, tier)
	if err != nil && !errors.Is(err, exam.ErrTraineeRequired) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s, Score: a.exams.Score(s), Draft: draft})
}

// draftRequest marks exercises and saves the draft. An empty mark clears
// the exercise. With New the previous draft is discarded first.
type draftRequest struct {
	New   bool              `json:"new"`
	Date  string            `json:"date"`
	Marks map[string]string `json:"marks"`
}

func (a *app) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	date := examDate(r)
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
			return
		}
		date = d
	}

	mode := exam.Resume
	if req.New {
		mode = exam.New
	}
	s, err := a.exams.Start(r.PathValue("trainee"), r.PathValue("tier"), date, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	for id, v := range req.Marks {
		if v == "" {
			s.Unmark(id)
			continue
		}
		m, err := exam.ParseMark(v)
		if err == nil {
			err = s.Mark(id, m)
		}
		if err != nil {
			writeError(w, err)
			return
		}
	}

	if err := a.exams.Save(s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s, Score: a.exams.Score(s), Draft: true})
}

func (a *app) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := a.exams.DiscardDraft(r.PathValue("trainee"), r.PathValue("tier")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleExportDraft(w http.ResponseWriter, r *http.Request) {
	s, err := a.exams.Start(r.PathValue("trainee"), r.PathValue("tier"), examDate(r), exam.Resume)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.exams.Export(s, report.ExamExporter{W: &buf}); err != nil {
		writeError(w, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("exam-%s-%s.xlsx", s.TierID, s.Date.Format(dateLayout)), buf.Bytes())
}

// tier resolves the {tier} path value, writing a 404 when it is unknown.
func (a *app) tier(w http.ResponseWriter, r *http.Request) (curriculum.Tier, bool) {
	key := r.PathValue("tier")
	t, ok := curriculum.FindTier(a.catalog, key)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", curriculum.ErrUnknownTier, key))
		return curriculum.Tier{}, false
	}
	return t, true
}

// examDate reads ?date=YYYY-MM-DD, defaulting to today.
func examDate(r *http.Request) time.Time {
	if v := r.URL.Query().Get("date"); v != "" {
		if d, err := time.Parse(dateLayout, v); err == nil {
			return d
		}
	}
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, curriculum.ErrUnknownTier),
		errors.Is(err, subject.ErrUnknownSubject),
		errors.Is(err, subject.ErrUnknownPick):
		status = http.StatusNotFound
	case errors.Is(err, exam.ErrValidation),
		errors.Is(err, exam.ErrUnknownExercise),
		errors.Is(err, exam.ErrInvalidMark):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
