package session

import (
	"time"

	"github.com/mind-engage/mindengage-tka/internal/exam"
)

// State of a live session. A student without a session is idle.
type State string

const (
	StateInProgress  State = "in_progress"
	StateScored      State = "scored"
	StateNoQuestions State = "no_questions" // terminal: nothing to answer or score
)

// Session is one student's attempt. Its question list is a snapshot taken at
// start and never changes afterwards.
type Session struct {
	ID        string           `json:"id"`
	Student   exam.StudentInfo `json:"student"`
	Subject   exam.Subject     `json:"subject"`
	Package   string           `json:"package"`
	State     State            `json:"state"`
	Questions []exam.Question  `json:"questions"`
	Answers   exam.UserAnswers `json:"answers"`
	StartedAt time.Time        `json:"startedAt"`
	Result    *exam.ExamResult `json:"result,omitempty"`
}

// View is what a student may see of a session: no answer keys.
type View struct {
	ID        string           `json:"id"`
	Student   exam.StudentInfo `json:"student"`
	Subject   exam.Subject     `json:"subject"`
	Package   string           `json:"package"`
	State     State            `json:"state"`
	Questions []QuestionView   `json:"questions"`
	Answers   exam.UserAnswers `json:"answers"`
	StartedAt time.Time        `json:"startedAt"`
	Result    *ResultView      `json:"result,omitempty"`
}

type QuestionView struct {
	ID       string       `json:"id"`
	Number   int          `json:"number"`
	Text     string       `json:"text"`
	ImageURL string       `json:"imageUrl,omitempty"`
	Options  exam.Options `json:"options"`
}

type ResultView struct {
	exam.ExamResult
	Feedback string `json:"feedback"`
}

// View copies s without answer keys. The answer map is copied too.
func (s *Session) View() View {
	v := View{
		ID:        s.ID,
		Student:   s.Student,
		Subject:   s.Subject,
		Package:   s.Package,
		State:     s.State,
		Questions: make([]QuestionView, len(s.Questions)),
		Answers:   make(exam.UserAnswers, len(s.Answers)),
		StartedAt: s.StartedAt,
	}
	for i, q := range s.Questions {
		v.Questions[i] = QuestionView{ID: q.ID, Number: q.Number, Text: q.Text, ImageURL: q.ImageURL, Options: q.Options}
	}
	for k, a := range s.Answers {
		v.Answers[k] = a
	}
	if s.Result != nil {
		v.Result = &ResultView{ExamResult: *s.Result, Feedback: exam.Feedback(s.Result.Score)}
	}
	return v
}

func (s *Session) has(questionID string) bool {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}
