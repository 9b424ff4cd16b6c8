package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/session"
)

// GET /settings  school branding for the login and result screens
func SettingsHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := c.Settings(r.Context())
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// POST /sessions  { "nis", "name", "className", "subject", "package" }
func StartSessionHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			exam.StudentInfo
			Subject exam.Subject `json:"subject"`
			Package string       `json:"package"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		v, err := c.Start(r.Context(), req.StudentInfo, req.Subject, req.Package)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

func GetSessionHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := c.Get(chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// PUT /sessions/{id}/answers/{questionID}  { "answer": "B" }
func AnswerHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answer exam.OptionKey `json:"answer"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		v, err := c.Answer(chi.URLParam(r, "id"), chi.URLParam(r, "questionID"), req.Answer)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v.Answers)
	}
}

func SubmitHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := c.Submit(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session.ResultView{ExamResult: res, Feedback: exam.Feedback(res.Score)})
	}
}

// DELETE /sessions/{id}  leave without saving anything
func AbandonHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Abandon(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}
