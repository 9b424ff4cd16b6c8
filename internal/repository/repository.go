// Package repository persists the question bank, exam results and school
// settings as JSON documents in a key-value store.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/kv"
)

// Well-known storage keys.
const (
	KeyQuestions = "tka_216_questions"
	KeyResults   = "tka_216_results"
	KeySettings  = "tka_216_settings"
)

// ErrCorrupt wraps a stored document that can no longer be decoded.
// The document is left untouched so an operator can inspect it.
var ErrCorrupt = errors.New("stored data is corrupt")

type Reader interface {
	Questions(ctx context.Context) ([]exam.Question, error)
	Results(ctx context.Context) ([]exam.ExamResult, error)
	Settings(ctx context.Context) (exam.SchoolSettings, error)
}

// Writer is the replace-wholesale half used by sync and import.
type Writer interface {
	SaveQuestions(ctx context.Context, qs []exam.Question) error
	SaveSettings(ctx context.Context, s exam.SchoolSettings) error
}

// QuestionsFunc edits a copy of the question bank. It reports whether the
// bank changed; nothing is written when it did not.
type QuestionsFunc func(qs []exam.Question) ([]exam.Question, bool)

// ResultsFunc is QuestionsFunc for the result list.
type ResultsFunc func(rs []exam.ExamResult) ([]exam.ExamResult, bool)

type Repository interface {
	Reader
	Writer
	UpdateQuestions(ctx context.Context, fn QuestionsFunc) (bool, error)
	UpdateResults(ctx context.Context, fn ResultsFunc) (bool, error)
	SaveResult(ctx context.Context, r exam.ExamResult) error
	UpdateResult(ctx context.Context, r exam.ExamResult) error
	DeleteResult(ctx context.Context, id string) error
}

// KVRepository is safe for use by one process; writers in other processes
// sharing the same store may overwrite each other.
type KVRepository struct {
	store kv.Store
	mu    sync.Mutex // serializes read-modify-write
}

func New(store kv.Store) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) Questions(ctx context.Context) ([]exam.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.questions(ctx)
}

// UpdateQuestions runs fn on the current bank and stores its result, holding
// the lock across the read and the write.
func (r *KVRepository) UpdateQuestions(ctx context.Context, fn QuestionsFunc) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qs, err := r.questions(ctx)
	if err != nil {
		return false, err
	}
	qs, changed := fn(qs)
	if !changed {
		return false, nil
	}
	if qs == nil {
		qs = []exam.Question{}
	}
	if err := r.put(ctx, KeyQuestions, qs); err != nil {
		return false, err
	}
	return true, nil
}

func (r *KVRepository) questions(ctx context.Context) ([]exam.Question, error) {
	var qs []exam.Question
	found, err := r.load(ctx, KeyQuestions, &qs)
	if err != nil {
		return nil, err
	}
	if !found {
		qs = exam.SeedQuestions()
		if err := r.put(ctx, KeyQuestions, qs); err != nil {
			return nil, err
		}
	}
	if qs == nil {
		qs = []exam.Question{}
	}
	return qs, nil
}

func (r *KVRepository) SaveQuestions(ctx context.Context, qs []exam.Question) error {
	if qs == nil {
		qs = []exam.Question{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(ctx, KeyQuestions, qs)
}

func (r *KVRepository) Settings(ctx context.Context) (exam.SchoolSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s exam.SchoolSettings
	found, err := r.load(ctx, KeySettings, &s)
	if err != nil {
		return exam.SchoolSettings{}, err
	}
	if !found {
		s = exam.SeedSettings()
		if err := r.put(ctx, KeySettings, s); err != nil {
			return exam.SchoolSettings{}, err
		}
	}
	return s, nil
}

func (r *KVRepository) SaveSettings(ctx context.Context, s exam.SchoolSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(ctx, KeySettings, s)
}

// Results seeds to an empty list without writing it.
func (r *KVRepository) Results(ctx context.Context) ([]exam.ExamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results(ctx)
}

// UpdateResults is UpdateQuestions for the result list.
func (r *KVRepository) UpdateResults(ctx context.Context, fn ResultsFunc) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.results(ctx)
	if err != nil {
		return false, err
	}
	all, changed := fn(all)
	if !changed {
		return false, nil
	}
	if all == nil {
		all = []exam.ExamResult{}
	}
	if err := r.put(ctx, KeyResults, all); err != nil {
		return false, err
	}
	return true, nil
}

func (r *KVRepository) SaveResult(ctx context.Context, res exam.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.results(ctx)
	if err != nil {
		return err
	}
	return r.put(ctx, KeyResults, append(all, res))
}

// UpdateResult replaces the result with the same id. Unknown ids are ignored.
func (r *KVRepository) UpdateResult(ctx context.Context, res exam.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.results(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == res.ID {
			all[i] = res
			return r.put(ctx, KeyResults, all)
		}
	}
	return nil
}

// DeleteResult removes the result with the given id. Unknown ids are ignored.
func (r *KVRepository) DeleteResult(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.results(ctx)
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, res := range all {
		if res.ID != id {
			kept = append(kept, res)
		}
	}
	if len(kept) == len(all) {
		return nil
	}
	return r.put(ctx, KeyResults, kept)
}

func (r *KVRepository) results(ctx context.Context) ([]exam.ExamResult, error) {
	var all []exam.ExamResult
	if _, err := r.load(ctx, KeyResults, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = []exam.ExamResult{}
	}
	return all, nil
}

func (r *KVRepository) load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func (r *KVRepository) put(ctx context.Context, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, key, string(buf)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
