package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/report"
	"github.com/mind-engage/mindengage-tka/internal/session"
)

// GET /admin/questions?subject=&package=
func ListQuestionsHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := c.Questions(r.Context())
		if err != nil {
			fail(w, err)
			return
		}
		subject := exam.Subject(r.URL.Query().Get("subject"))
		pkg := r.URL.Query().Get("package")
		out := make([]exam.Question, 0, len(qs))
		for _, q := range qs {
			if (subject == "" || q.Subject == subject) && (pkg == "" || q.Package == pkg) {
				out = append(out, q)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /admin/questions creates; PUT /admin/questions/{id} replaces.
func SaveQuestionHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q exam.Question
		if !decodeJSON(w, r, &q) {
			return
		}
		status := http.StatusCreated
		if id := chi.URLParam(r, "id"); id != "" {
			q.ID = id
			status = http.StatusOK
		}
		saved, err := c.UpsertQuestion(r.Context(), q)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, status, saved)
	}
}

func DeleteQuestionHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.DeleteQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /admin/questions/import  multipart "file": .csv or .xlsx question sheet
func ImportQuestionsHandler(c *session.Controller, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		var qs []exam.Question
		switch strings.ToLower(filepath.Ext(hdr.Filename)) {
		case ".csv":
			qs, err = report.ReadQuestionsCSV(f)
		case ".xlsx":
			qs, err = report.ReadQuestionsXLSX(f)
		default:
			http.Error(w, "expected a .csv or .xlsx file", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n, err := c.ImportQuestions(r.Context(), qs)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"imported": n})
	}
}
