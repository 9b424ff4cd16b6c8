package exam

import "time"

type Subject string

const (
	SubjectMath       Subject = "Matematika"
	SubjectIndonesian Subject = "Bahasa Indonesia"
)

// Subjects lists every subject an exam can be taken in.
var Subjects = []Subject{SubjectMath, SubjectIndonesian}

func (s Subject) Valid() bool {
	switch s {
	case SubjectMath, SubjectIndonesian:
		return true
	}
	return false
}

type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// Valid reports whether k is one of A-D. Matching is case-sensitive.
func (k OptionKey) Valid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

type Options struct {
	A string `json:"A" validate:"required"`
	B string `json:"B" validate:"required"`
	C string `json:"C" validate:"required"`
	D string `json:"D" validate:"required"`
}

type Question struct {
	ID            string    `json:"id" validate:"required"`
	Number        int       `json:"number"` // display only, not unique
	Text          string    `json:"text" validate:"required"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Options       Options   `json:"options"`
	CorrectAnswer OptionKey `json:"correctAnswer" validate:"required,oneof=A B C D"`
	Subject       Subject   `json:"subject" validate:"required,subject"`
	Package       string    `json:"package" validate:"required"`
}

type StudentInfo struct {
	NIS       string `json:"nis"`
	Name      string `json:"name"`
	ClassName string `json:"className"`
}

// UserAnswers maps question id to the chosen option. A later selection for the
// same question overwrites the earlier one; a missing entry means unanswered.
type UserAnswers map[string]OptionKey

type ExamResult struct {
	ID             string    `json:"id"`
	NIS            string    `json:"nis"`
	StudentName    string    `json:"studentName"`
	ClassName      string    `json:"className"`
	Subject        Subject   `json:"subject"`
	Package        string    `json:"package"`
	Score          int       `json:"score"`
	CorrectCount   int       `json:"correctCount"`
	WrongCount     int       `json:"wrongCount"`
	TotalQuestions int       `json:"totalQuestions"`
	Timestamp      time.Time `json:"timestamp"`
}

type SchoolSettings struct {
	SchoolName    string `json:"schoolName"`
	Motto         string `json:"motto"`
	AcademicYear  string `json:"academicYear"`
	LogoURL       string `json:"logoUrl"`
	RemoteSyncURL string `json:"remoteSyncUrl,omitempty" validate:"omitempty,url"`
}

// ResultFilter narrows a result listing the way the admin dashboard does.
// Empty fields match everything.
type ResultFilter struct {
	ClassName string
	Subject   Subject
	Package   string
}

func (f ResultFilter) Match(r ExamResult) bool {
	return (f.ClassName == "" || r.ClassName == f.ClassName) &&
		(f.Subject == "" || r.Subject == f.Subject) &&
		(f.Package == "" || r.Package == f.Package)
}

// FilterResults returns the results matching f, preserving order.
func FilterResults(results []ExamResult, f ResultFilter) []ExamResult {
	out := make([]ExamResult, 0, len(results))
	for _, r := range results {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
