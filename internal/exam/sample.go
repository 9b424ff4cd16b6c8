package exam

import "math/rand"

// MaxSessionQuestions bounds the number of questions drawn for one session.
const MaxSessionQuestions = 20

// Sample draws the question set for one session: questions matching subject
// and pkg exactly, uniformly shuffled, truncated to MaxSessionQuestions.
// The pool is never modified; the result shares no memory with it.
func Sample(pool []Question, subject Subject, pkg string, rnd *rand.Rand) []Question {
	out := make([]Question, 0, len(pool))
	for _, q := range pool {
		if q.Subject == subject && q.Package == pkg {
			out = append(out, q)
		}
	}
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > MaxSessionQuestions {
		out = out[:MaxSessionQuestions:MaxSessionQuestions]
	}
	return out
}
