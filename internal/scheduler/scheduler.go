// Package scheduler runs the periodic background jobs: remote sync and
// eviction of stale sessions.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// SyncFunc pulls the configured remote document and reports whether anything
// was applied.
type SyncFunc func(ctx context.Context) bool

// Pruner drops sessions older than the given age.
type Pruner interface {
	Prune(olderThan time.Duration) int
}

type Config struct {
	SyncInterval time.Duration // 0 disables periodic sync
	SyncTimeout  time.Duration
	SessionTTL   time.Duration // 0 disables pruning
}

type Scheduler struct {
	s      *gocron.Scheduler
	cfg    Config
	syncer SyncFunc
	pruner Pruner
	log    logrus.FieldLogger
}

func New(cfg Config, syncer SyncFunc, pruner Pruner, log logrus.FieldLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{s: s, cfg: cfg, syncer: syncer, pruner: pruner, log: log}
}

// Start registers the enabled jobs and runs them in the background. The
// first sync tick happens one interval after start; startup sync is the
// caller's job.
func (s *Scheduler) Start() error {
	if s.cfg.SyncInterval > 0 && s.syncer != nil {
		if _, err := s.s.Every(s.cfg.SyncInterval).WaitForSchedule().Do(s.syncOnce); err != nil {
			return err
		}
	}
	if s.cfg.SessionTTL > 0 && s.pruner != nil {
		if _, err := s.s.Every(s.cfg.SessionTTL / 4).WaitForSchedule().Do(s.pruneOnce); err != nil {
			return err
		}
	}
	s.s.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.s.Stop()
}

func (s *Scheduler) syncOnce() {
	ctx := context.Background()
	if s.cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SyncTimeout)
		defer cancel()
	}
	if s.syncer(ctx) {
		s.log.Info("periodic sync applied")
	}
}

func (s *Scheduler) pruneOnce() {
	if n := s.pruner.Prune(s.cfg.SessionTTL); n > 0 {
		s.log.WithField("sessions", n).Info("stale sessions pruned")
	}
}
