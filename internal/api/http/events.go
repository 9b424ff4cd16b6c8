package http

import (
	"context"
	"net/http"

	auth "github.com/mind-engage/mindengage-tka/internal/auth/middleware"
	"github.com/mind-engage/mindengage-tka/internal/rbac"
	syncx "github.com/mind-engage/mindengage-tka/internal/sync"
)

type EventLister interface {
	Recent(ctx context.Context, limit int) ([]syncx.Event, error)
}

// GET /admin/events?limit=50  recent change journal, newest first. Without a
// SQL backend there is no journal and the list is empty.
func RecentEventsHandler(el EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if el == nil {
			writeJSON(w, http.StatusOK, []syncx.Event{})
			return
		}
		evs, err := el.Recent(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 50))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}

// GET /auth/me
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"sub":         auth.SubjectFromContext(r.Context()),
			"role":        role,
			"permissions": rbac.Default().Grants(role),
		})
	}
}
