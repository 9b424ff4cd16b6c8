package session

import (
	"context"

	"github.com/mind-engage/mindengage-tka/internal/events"
	"github.com/mind-engage/mindengage-tka/internal/exam"
)

func (c *Controller) Questions(ctx context.Context) ([]exam.Question, error) {
	return c.repo.Questions(ctx)
}

// UpsertQuestion replaces the question with the same id or appends it. An
// empty id gets a fresh one. Running sessions keep their own snapshot.
func (c *Controller) UpsertQuestion(ctx context.Context, q exam.Question) (exam.Question, error) {
	if q.ID == "" {
		q.ID = c.newID()
	}
	if err := exam.ValidateQuestion(q); err != nil {
		return exam.Question{}, err
	}
	_, err := c.repo.UpdateQuestions(ctx, func(qs []exam.Question) ([]exam.Question, bool) {
		for i := range qs {
			if qs[i].ID == q.ID {
				qs[i] = q
				return qs, true
			}
		}
		return append(qs, q), true
	})
	if err != nil {
		return exam.Question{}, err
	}
	c.changed(events.QuestionsChanged)
	return q, nil
}

// ImportQuestions upserts a batch by id in one write. Rows without an id get
// a fresh one. Nothing is written unless every question validates.
func (c *Controller) ImportQuestions(ctx context.Context, batch []exam.Question) (int, error) {
	in := make([]exam.Question, len(batch))
	copy(in, batch)
	for i := range in {
		if in[i].ID == "" {
			in[i].ID = c.newID()
		}
	}
	if err := exam.ValidateQuestions(in); err != nil {
		return 0, err
	}
	_, err := c.repo.UpdateQuestions(ctx, func(qs []exam.Question) ([]exam.Question, bool) {
		at := make(map[string]int, len(qs))
		for i, q := range qs {
			at[q.ID] = i
		}
		for _, q := range in {
			if i, ok := at[q.ID]; ok {
				qs[i] = q
				continue
			}
			at[q.ID] = len(qs)
			qs = append(qs, q)
		}
		return qs, true
	})
	if err != nil {
		return 0, err
	}
	c.changed(events.QuestionsChanged)
	return len(in), nil
}

// DeleteQuestion removes the question; an unknown id is a no-op.
func (c *Controller) DeleteQuestion(ctx context.Context, id string) error {
	changed, err := c.repo.UpdateQuestions(ctx, func(qs []exam.Question) ([]exam.Question, bool) {
		kept := make([]exam.Question, 0, len(qs))
		for _, q := range qs {
			if q.ID != id {
				kept = append(kept, q)
			}
		}
		return kept, len(kept) != len(qs)
	})
	if err != nil || !changed {
		return err
	}
	c.changed(events.QuestionsChanged)
	return nil
}

func (c *Controller) Results(ctx context.Context, f exam.ResultFilter) ([]exam.ExamResult, error) {
	all, err := c.repo.Results(ctx)
	if err != nil {
		return nil, err
	}
	return exam.FilterResults(all, f), nil
}

// UpdateResultScore overrides a stored score. Counts are left as scored.
// It reports false when no result has the id.
func (c *Controller) UpdateResultScore(ctx context.Context, id string, score int) (exam.ExamResult, bool, error) {
	if score < 0 || score > 100 {
		return exam.ExamResult{}, false, ErrScoreOutOfRange
	}
	var updated exam.ExamResult
	found, err := c.repo.UpdateResults(ctx, func(rs []exam.ExamResult) ([]exam.ExamResult, bool) {
		for i := range rs {
			if rs[i].ID == id {
				rs[i].Score = score
				updated = rs[i]
				return rs, true
			}
		}
		return rs, false
	})
	if err != nil || !found {
		return exam.ExamResult{}, false, err
	}
	c.log.WithField("result", id).WithField("score", score).Info("result score overridden")
	return updated, true, nil
}

// DeleteResult removes a result; an unknown id is a no-op.
func (c *Controller) DeleteResult(ctx context.Context, id string) error {
	return c.repo.DeleteResult(ctx, id)
}

func (c *Controller) Settings(ctx context.Context) (exam.SchoolSettings, error) {
	return c.repo.Settings(ctx)
}

func (c *Controller) SaveSettings(ctx context.Context, s exam.SchoolSettings) error {
	if err := exam.ValidateSettings(s); err != nil {
		return err
	}
	if err := c.repo.SaveSettings(ctx, s); err != nil {
		return err
	}
	c.changed(events.SettingsChanged)
	return nil
}

func (c *Controller) changed(k events.Kind) {
	c.bus.Publish(events.Event{Kind: k, Source: "admin", At: c.now()})
}
