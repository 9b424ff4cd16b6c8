package exam

// Tally is the outcome of scoring one session.
type Tally struct {
	Correct int
	Wrong   int
	Total   int
	Score   int // 0..100
}

// Score counts exact matches between answers and each question's key.
// Unanswered questions and keys outside A-D count as wrong.
func Score(questions []Question, answers UserAnswers) Tally {
	t := Tally{Total: len(questions)}
	for _, q := range questions {
		a, ok := answers[q.ID]
		if ok && a.Valid() && a == q.CorrectAnswer {
			t.Correct++
		}
	}
	t.Wrong = t.Total - t.Correct
	t.Score = percent(t.Correct, t.Total)
	return t
}

// percent rounds correct/total*100 half-up using integer arithmetic only.
func percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

// Feedback is the headline shown next to a score on the result screen.
func Feedback(score int) string {
	switch {
	case score >= 80:
		return "Sangat Memuaskan!"
	case score >= 70:
		return "Bagus Sekali!"
	case score >= 60:
		return "Cukup Baik"
	default:
		return "Ayo Belajar Lagi!"
	}
}
