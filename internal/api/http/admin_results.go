package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/report"
	"github.com/mind-engage/mindengage-tka/internal/session"
)

func filterFrom(r *http.Request) exam.ResultFilter {
	q := r.URL.Query()
	return exam.ResultFilter{
		ClassName: q.Get("class"),
		Subject:   exam.Subject(q.Get("subject")),
		Package:   q.Get("package"),
	}
}

// GET /admin/results?class=&subject=&package=
func ListResultsHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := c.Results(r.Context(), filterFrom(r))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

// PATCH /admin/results/{id}  { "score": 85 }
func UpdateResultHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Score *int `json:"score"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Score == nil {
			http.Error(w, "score required", http.StatusBadRequest)
			return
		}
		res, ok, err := c.UpdateResultScore(r.Context(), chi.URLParam(r, "id"), *req.Score)
		if err != nil {
			fail(w, err)
			return
		}
		if !ok {
			http.Error(w, "result not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func DeleteResultHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.DeleteResult(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type resultWriter func(w io.Writer, rs []exam.ExamResult, o report.ResultOptions) error

// ExportResultsHandler streams the filtered results as a download.
func ExportResultsHandler(c *session.Controller, format string, loc *time.Location, now func() time.Time) http.HandlerFunc {
	var (
		ctype string
		write resultWriter
	)
	switch format {
	case "xlsx":
		ctype = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		write = report.WriteResultsXLSX
	default:
		format = "csv"
		ctype = "text/csv; charset=utf-8"
		write = report.WriteResultsCSV
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := c.Results(r.Context(), filterFrom(r))
		if err != nil {
			fail(w, err)
			return
		}
		name := fmt.Sprintf("TKA_Hasil_%s.%s", now().In(loc).Format("2006-01-02"), format)
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		if err := write(w, rs, report.ResultOptions{Location: loc}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
