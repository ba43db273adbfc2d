package api

import (
	"net/http"

	"github.com/soaringjerry/supportportal/internal/services"
)

// GET /api/mood
func (rt *Router) handleMoodHistory(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	h, err := services.NewMoodService(c).History(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"moods": services.Moods, "history": h})
}

// POST /api/mood {mood}
func (rt *Router) handleRecordMood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionRecordMood, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionRecordMood, err)
		return
	}
	if rt.mutate(w, r, services.ActionRecordMood, "addMoodEntry", req.Mood, func() error {
		return services.NewMoodService(c).Record(r.Context(), req.Mood)
	}) {
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "toast": "Mood recorded successfully"})
	}
}

// GET /api/mood/export
func (rt *Router) handleMoodExport(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	if !c.Caller().Authenticated() {
		rt.writeError(w, r, services.ActionLoad, services.NewUnauthorizedError("Please login to export your mood history"))
		return
	}
	entries, err := c.MoodEntries(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	b, err := services.ExportMoodCSV(entries)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeCSV(w, "mood.csv", b)
}

// GET /api/quiz
func (rt *Router) handleQuiz(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	prev, err := services.NewQuizService(c).Previous(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": services.QuizQuestions,
		"options":   services.QuizOptions,
		"max_score": services.MaxQuizScore,
		"previous":  prev,
	})
}

// POST /api/quiz {answers}
func (rt *Router) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []int `json:"answers"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionSubmitQuiz, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionSubmitQuiz, err)
		return
	}
	var res *services.QuizResult
	if rt.mutate(w, r, services.ActionSubmitQuiz, "submitStressQuiz", "", func() error {
		var err error
		res, err = services.NewQuizService(c).Submit(r.Context(), req.Answers)
		return err
	}) {
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /api/therapy/types
func (rt *Router) handleTherapyTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": services.TherapyTypes})
}

// GET /api/therapy, GET /api/admin/therapy
func (rt *Router) handleTherapyRequests(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	reqs, err := services.NewTherapyService(c).All(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

// POST /api/therapy {type, details}
func (rt *Router) handleRequestTherapy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    string `json:"type"`
		Details string `json:"details"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionRequestSession, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionRequestSession, err)
		return
	}
	if rt.mutate(w, r, services.ActionRequestSession, "createTherapySessionRequest", req.Type, func() error {
		return services.NewTherapyService(c).Request(r.Context(), req.Type, req.Details)
	}) {
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "toast": "Session request submitted successfully"})
	}
}

// GET /api/resources
func (rt *Router) handleResources(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewResourcesService(c, rt.publicURL).All(r.Context()))
}

func writeCSV(w http.ResponseWriter, filename string, b []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(b)
}
