package syncx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-tka/internal/events"
	"github.com/mind-engage/mindengage-tka/internal/repository"
)

type Event struct {
	Seq       int64  `db:"seq" json:"seq"`
	SiteID    string `db:"site_id" json:"site_id"`
	Type      string `db:"typ" json:"type"`
	Ref       string `db:"ref" json:"ref"`
	DataJSON  string `db:"data" json:"data"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// EventRepo journals change notifications into the event_log table.
type EventRepo struct {
	db     *sqlx.DB
	siteID string
}

func NewEventRepo(db *sqlx.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO event_log (site_id, typ, ref, data, created_at)
		 VALUES (?,?,?,?,?)`),
		e.SiteID, e.Type, e.Ref, e.DataJSON, time.Now().Unix())
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepo) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out := []Event{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT seq, site_id, typ, ref, data, created_at FROM event_log
		 ORDER BY seq DESC LIMIT ?`), limit)
	return out, err
}

// Journal returns a bus listener that appends every event. Failures are
// logged and never reach the publisher.
func (r *EventRepo) Journal(log logrus.FieldLogger) events.Listener {
	return func(ev events.Event) {
		data, _ := json.Marshal(ev)
		e := Event{Type: string(ev.Kind), Ref: refFor(ev.Kind), DataJSON: string(data)}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Append(ctx, e); err != nil {
			log.WithError(err).WithField("kind", ev.Kind).Warn("event journal append failed")
		}
	}
}

func refFor(k events.Kind) string {
	switch k {
	case events.QuestionsChanged:
		return repository.KeyQuestions
	case events.SettingsChanged:
		return repository.KeySettings
	}
	return string(k)
}
