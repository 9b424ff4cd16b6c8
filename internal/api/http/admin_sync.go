package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	syncx "github.com/mind-engage/mindengage-tka/internal/sync"
)

// POST /admin/sync  { "url": "..." }  pulls a remote document now. Without a
// url the one in settings is used.
func SyncHandler(m *syncx.Merger, f syncx.Fetcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		var applied bool
		if u := strings.TrimSpace(req.URL); u != "" {
			applied = m.SyncRemote(ctx, f, u)
		} else {
			applied = m.SyncConfigured(ctx, f)
		}
		writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
	}
}

// GET /admin/backup  questions and settings as a JSON download
func ExportBackupHandler(m *syncx.Merger, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := m.Export(r.Context())
		if err != nil {
			fail(w, err)
			return
		}
		name := fmt.Sprintf("TKA_Backup_%s.json", b.Timestamp.In(loc).Format("2006-01-02"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		writeJSON(w, http.StatusOK, b)
	}
}

// POST /admin/backup?confirm=true  overwrites local questions and settings.
// A valid document without confirm=true is answered with 428 and not applied.
func ImportBackupHandler(m *syncx.Merger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := readBody(w, r)
		if !ok {
			return
		}
		confirmed := r.URL.Query().Get("confirm") == "true"
		applied, err := m.Import(r.Context(), raw, func(syncx.Payload) bool { return confirmed })
		if err != nil {
			fail(w, err)
			return
		}
		if !applied {
			http.Error(w, "upload overwrites local data; repeat with confirm=true", http.StatusPreconditionRequired)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"applied": true})
	}
}
