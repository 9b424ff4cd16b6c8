package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/session"
)

// PUT /admin/settings  replaces the whole settings document
func SaveSettingsHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s exam.SchoolSettings
		if !decodeJSON(w, r, &s) {
			return
		}
		if err := c.SaveSettings(r.Context(), s); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
