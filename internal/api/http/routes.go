// Package http exposes the exam engine over a JSON API: the student flow is
// public, everything under /admin needs a staff token.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-tka/internal/auth/middleware"
	"github.com/mind-engage/mindengage-tka/internal/rbac"
	"github.com/mind-engage/mindengage-tka/internal/session"
	"github.com/mind-engage/mindengage-tka/internal/storage"
	syncx "github.com/mind-engage/mindengage-tka/internal/sync"
)

type Deps struct {
	Sessions    *session.Controller
	Merger      *syncx.Merger
	Fetcher     syncx.Fetcher
	Blobs       storage.BlobStore
	Events      EventLister // nil without a SQL backend
	Auth        *auth.AuthService
	Location    *time.Location
	MaxUpload   int64
	SyncTimeout time.Duration
	Now         func() time.Time
}

func Mount(r chi.Router, d Deps) {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxUpload <= 0 {
		d.MaxUpload = 5 << 20
	}

	r.Get("/settings", SettingsHandler(d.Sessions))
	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", StartSessionHandler(d.Sessions))
		sr.Get("/{id}", GetSessionHandler(d.Sessions))
		sr.Put("/{id}/answers/{questionID}", AnswerHandler(d.Sessions))
		sr.Post("/{id}/submit", SubmitHandler(d.Sessions))
		sr.Delete("/{id}", AbandonHandler(d.Sessions))
	})
	r.Post("/auth/login", auth.LoginHandler(d.Auth))
	r.Get("/assets/*", GetAssetHandler(d.Blobs))

	// JWT → role in context → RBAC
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Get("/auth/me", MeHandler())

		pr.Route("/admin", func(ar chi.Router) {
			ar.With(rbac.Require(rbac.PermQuestionsRead)).
				Get("/questions", ListQuestionsHandler(d.Sessions))
			ar.With(rbac.Require(rbac.PermQuestionsWrite)).
				Post("/questions", SaveQuestionHandler(d.Sessions))
			ar.With(rbac.Require(rbac.PermQuestionsImport)).
				Post("/questions/import", ImportQuestionsHandler(d.Sessions, d.MaxUpload))
			ar.With(rbac.Require(rbac.PermQuestionsWrite)).
				Put("/questions/{id}", SaveQuestionHandler(d.Sessions))
			ar.With(rbac.Require(rbac.PermQuestionsWrite)).
				Delete("/questions/{id}", DeleteQuestionHandler(d.Sessions))

			ar.With(rbac.Require(rbac.PermResultsRead)).
				Get("/results", ListResultsHandler(d.Sessions))
			ar.With(rbac.Require(rbac.PermResultsExport)).
				Get("/results/export.csv", ExportResultsHandler(d.Sessions, "csv", d.Location, d.Now))
			ar.With(rbac.Require(rbac.PermResultsExport)).
				Get("/results/export.xlsx", ExportResultsHandler(d.Sessions, "xlsx", d.Location, d.Now))
			ar.With(rbac.Require(rbac.PermResultsWrite)).
				Patch("/results/{id}", UpdateResultHandler(d.Sessions))
			ar.With(rbac.Require(rbac.PermResultsWrite)).
				Delete("/results/{id}", DeleteResultHandler(d.Sessions))

			ar.With(rbac.Require(rbac.PermSettingsWrite)).
				Put("/settings", SaveSettingsHandler(d.Sessions))
			ar.With(rbac.Require(rbac.PermSyncRun)).
				Post("/sync", SyncHandler(d.Merger, d.Fetcher, d.SyncTimeout))
			ar.With(rbac.Require(rbac.PermBackupExport)).
				Get("/backup", ExportBackupHandler(d.Merger, d.Location))
			ar.With(rbac.Require(rbac.PermBackupImport)).
				Post("/backup", ImportBackupHandler(d.Merger))
			ar.With(rbac.Require(rbac.PermAssetsUpload)).
				Post("/assets", UploadAssetHandler(d.Blobs, d.MaxUpload))
			ar.With(rbac.Require(rbac.PermEventsRead)).
				Get("/events", RecentEventsHandler(d.Events))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ReadyHandler(d.Sessions))
}

// ReadyHandler reports 200 once the store answers.
func ReadyHandler(c *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := c.Settings(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
