// Package session runs the student exam flow (start, answer, submit) and the
// admin editing surface on top of the repository.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-tka/internal/events"
	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/repository"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrIncompleteLogin = errors.New("nis, name and class are required")
	ErrUnknownSubject  = errors.New("unknown subject")
	ErrPackageRequired = errors.New("package is required")
	ErrAlreadyScored   = errors.New("session already submitted")
	ErrNoQuestions     = errors.New("no questions available for this subject and package")
	ErrUnknownQuestion = errors.New("question is not part of this session")
	ErrInvalidOption   = errors.New("answer must be one of A, B, C, D")
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")
)

type Controller struct {
	repo  repository.Repository
	bus   *events.Bus
	log   logrus.FieldLogger
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	rnd      *rand.Rand // guarded by mu
	sessions map[string]*Session
}

type Option func(*Controller)

// WithRand makes sampling reproducible, e.g. rand.New(rand.NewSource(1)).
func WithRand(r *rand.Rand) Option { return func(c *Controller) { c.rnd = r } }
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }
func WithIDs(newID func() string) Option { return func(c *Controller) { c.newID = newID } }
func WithLogger(l logrus.FieldLogger) Option { return func(c *Controller) { c.log = l } }
func WithBus(b *events.Bus) Option { return func(c *Controller) { c.bus = b } }

func New(repo repository.Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:     repo,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: map[string]*Session{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.bus == nil {
		c.bus = events.NewBus()
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// Subscribe registers l for question and settings changes.
func (c *Controller) Subscribe(l events.Listener) (unsubscribe func()) {
	return c.bus.Subscribe(l)
}

// ---- student flow ----

// Start draws the session's questions once. When nothing matches the subject
// and package the session is created in StateNoQuestions.
func (c *Controller) Start(ctx context.Context, student exam.StudentInfo, subject exam.Subject, pkg string) (View, error) {
	student.NIS = strings.TrimSpace(student.NIS)
	student.Name = strings.TrimSpace(student.Name)
	student.ClassName = strings.TrimSpace(student.ClassName)
	if student.NIS == "" || student.Name == "" || student.ClassName == "" {
		return View{}, ErrIncompleteLogin
	}
	if !subject.Valid() {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}
	if strings.TrimSpace(pkg) == "" {
		return View{}, ErrPackageRequired
	}

	pool, err := c.repo.Questions(ctx)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := &Session{
		ID:        c.newID(),
		Student:   student,
		Subject:   subject,
		Package:   pkg,
		State:     StateInProgress,
		Questions: exam.Sample(pool, subject, pkg, c.rnd),
		Answers:   exam.UserAnswers{},
		StartedAt: c.now(),
	}
	if len(s.Questions) == 0 {
		s.State = StateNoQuestions
	}
	c.sessions[s.ID] = s
	c.log.WithFields(logrus.Fields{
		"session":   s.ID,
		"subject":   subject,
		"package":   pkg,
		"questions": len(s.Questions),
	}).Info("session started")
	return s.View(), nil
}

func (c *Controller) Get(id string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return View{}, ErrNotFound
	}
	return s.View(), nil
}

// Answer records key for questionID; a later answer overwrites an earlier one.
func (c *Controller) Answer(id, questionID string, key exam.OptionKey) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.inProgress(id)
	if err != nil {
		return View{}, err
	}
	if !key.Valid() {
		return View{}, ErrInvalidOption
	}
	if !s.has(questionID) {
		return View{}, ErrUnknownQuestion
	}
	s.Answers[questionID] = key
	return s.View(), nil
}

// Submit scores the session and persists the result. It succeeds once per
// session; later calls return ErrAlreadyScored.
func (c *Controller) Submit(ctx context.Context, id string) (exam.ExamResult, error) {
	c.mu.Lock()
	s, err := c.inProgress(id)
	if err != nil {
		c.mu.Unlock()
		return exam.ExamResult{}, err
	}
	t := exam.Score(s.Questions, s.Answers)
	res := exam.ExamResult{
		ID:             c.newID(),
		NIS:            s.Student.NIS,
		StudentName:    s.Student.Name,
		ClassName:      s.Student.ClassName,
		Subject:        s.Subject,
		Package:        s.Package,
		Score:          t.Score,
		CorrectCount:   t.Correct,
		WrongCount:     t.Wrong,
		TotalQuestions: t.Total,
		Timestamp:      c.now().UTC(),
	}
	s.State = StateScored
	s.Result = &res
	c.mu.Unlock()

	if err := c.repo.SaveResult(ctx, res); err != nil {
		c.mu.Lock()
		s.State = StateInProgress
		s.Result = nil
		c.mu.Unlock()
		return exam.ExamResult{}, fmt.Errorf("save result: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"session": id,
		"result":  res.ID,
		"score":   res.Score,
	}).Info("session scored")
	return res, nil
}

// Abandon drops a session from memory. Nothing was persisted for an
// unsubmitted session, so there is nothing to undo. Unknown ids are ignored.
func (c *Controller) Abandon(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

// Prune drops sessions started before the cutoff and reports how many.
func (c *Controller) Prune(olderThan time.Duration) int {
	cutoff := c.now().Add(-olderThan)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, s := range c.sessions {
		if s.StartedAt.Before(cutoff) {
			delete(c.sessions, id)
			n++
		}
	}
	return n
}

func (c *Controller) inProgress(id string) (*Session, error) {
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	switch s.State {
	case StateScored:
		return nil, ErrAlreadyScored
	case StateNoQuestions:
		return nil, ErrNoQuestions
	}
	return s, nil
}
