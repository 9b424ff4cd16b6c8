package syncx

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-tka/internal/events"
	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/repository"
)

// Store is what the merger needs from the repository.
type Store interface {
	repository.Reader
	repository.Writer
}

// Policy decides how a validated payload lands in local storage.
type Policy interface {
	Name() string
	Apply(ctx context.Context, w repository.Writer, p Payload) error
}

type replaceAll struct{}

// ReplaceAll overwrites the local questions and settings with the payload's.
// No field-level merge and no conflict detection: the last payload wins.
var ReplaceAll Policy = replaceAll{}

func (replaceAll) Name() string { return "replace_all" }

func (replaceAll) Apply(ctx context.Context, w repository.Writer, p Payload) error {
	if err := w.SaveQuestions(ctx, p.Questions); err != nil {
		return err
	}
	return w.SaveSettings(ctx, p.Settings)
}

// ConfirmFunc is asked before an import overwrites local data.
type ConfirmFunc func(p Payload) bool

type Merger struct {
	Store  Store
	Policy Policy
	Bus    *events.Bus
	Log    logrus.FieldLogger
	Now    func() time.Time
}

func New(store Store, bus *events.Bus, log logrus.FieldLogger) *Merger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Merger{Store: store, Policy: ReplaceAll, Bus: bus, Log: log, Now: time.Now}
}

// Merge validates raw and applies it. Nothing is written when validation fails.
func (m *Merger) Merge(ctx context.Context, raw []byte) error {
	p, err := DecodePayload(raw)
	if err != nil {
		return err
	}
	return m.apply(ctx, p, "sync")
}

// SyncRemote fetches url and merges the document. Sync is best-effort: every
// failure is logged and local data stays authoritative. It reports whether
// local data was replaced.
func (m *Merger) SyncRemote(ctx context.Context, f Fetcher, url string) bool {
	log := m.Log.WithField("url", url)
	if url == "" {
		log.Debug("remote sync skipped: no url configured")
		return false
	}
	raw, err := f.Fetch(ctx, url)
	if err != nil {
		log.WithError(err).Warn("remote sync fetch failed; keeping local data")
		return false
	}
	if err := m.Merge(ctx, raw); err != nil {
		log.WithError(err).Warn("remote sync rejected; keeping local data")
		return false
	}
	log.WithField("policy", m.Policy.Name()).Info("remote sync applied")
	return true
}

// SyncConfigured runs SyncRemote against the URL stored in the settings.
func (m *Merger) SyncConfigured(ctx context.Context, f Fetcher) bool {
	s, err := m.Store.Settings(ctx)
	if err != nil {
		m.Log.WithError(err).Warn("remote sync skipped: settings unreadable")
		return false
	}
	return m.SyncRemote(ctx, f, s.RemoteSyncURL)
}

// Import applies a backup file after confirm agrees. Validation errors are
// returned to the caller; a declined confirmation writes nothing and reports
// false with a nil error.
func (m *Merger) Import(ctx context.Context, raw []byte, confirm ConfirmFunc) (bool, error) {
	p, err := DecodePayload(raw)
	if err != nil {
		return false, err
	}
	if confirm == nil || !confirm(p) {
		return false, nil
	}
	if err := m.apply(ctx, p, "import"); err != nil {
		return false, err
	}
	return true, nil
}

// Export snapshots the current questions and settings as a backup document.
func (m *Merger) Export(ctx context.Context) (Backup, error) {
	qs, err := m.Store.Questions(ctx)
	if err != nil {
		return Backup{}, err
	}
	s, err := m.Store.Settings(ctx)
	if err != nil {
		return Backup{}, err
	}
	return Backup{Questions: qs, Settings: s, Timestamp: m.Now().UTC()}, nil
}

func (m *Merger) apply(ctx context.Context, p Payload, source string) error {
	w := notifyingWriter{Writer: m.Store, m: m, source: source}
	if err := m.Policy.Apply(ctx, w, p); err != nil {
		return fmt.Errorf("%s via %s: %w", source, m.Policy.Name(), err)
	}
	m.Log.WithFields(logrus.Fields{
		"source":    source,
		"questions": len(p.Questions),
	}).Info("questions and settings replaced")
	return nil
}

// notifyingWriter announces each document as soon as it is stored, so a
// policy that fails halfway still reports the half it wrote.
type notifyingWriter struct {
	repository.Writer
	m      *Merger
	source string
}

func (w notifyingWriter) SaveQuestions(ctx context.Context, qs []exam.Question) error {
	if err := w.Writer.SaveQuestions(ctx, qs); err != nil {
		return err
	}
	w.m.publish(events.QuestionsChanged, w.source)
	return nil
}

func (w notifyingWriter) SaveSettings(ctx context.Context, s exam.SchoolSettings) error {
	if err := w.Writer.SaveSettings(ctx, s); err != nil {
		return err
	}
	w.m.publish(events.SettingsChanged, w.source)
	return nil
}

func (m *Merger) publish(k events.Kind, source string) {
	m.Bus.Publish(events.Event{Kind: k, Source: source, At: m.Now()})
}
