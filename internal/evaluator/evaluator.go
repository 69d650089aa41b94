// Package evaluator decides whether a submitted answer is correct and how
// many points it earns. It is shared by the reading and listening modules so
// both grade with exactly the same rules.
//
// Evaluation is pure: it reads the question and answer, returns a Result, and
// never mutates either. Malformed, missing or mismatched payloads evaluate to
// an incorrect answer with zero points rather than an error.
package evaluator

import "fmt"

const msgManual = "manual review required"

// Evaluate grades one answer against its question.
//
// Automatic families always yield Correct or Incorrect, with points equal to
// the question's point value or zero. Manual families keep whatever verdict and
// points the answer already carries. An unknown question type returns the
// manual result together with ErrUnsupportedType.
func Evaluate(q Question, a Answer) (Result, error) {
	family, ok := Lookup(q.Type)
	if !ok {
		return manual(a), fmt.Errorf("%w: %q", ErrUnsupportedType, string(q.Type))
	}

	compare, ok := comparators[family]
	if !ok {
		return manual(a), nil
	}

	correct, why := compare(q, a.Submitted)
	if correct {
		return newResult(VerdictCorrect, q.PointValue(), ""), nil
	}
	return newResult(VerdictIncorrect, 0, why), nil
}

func manual(a Answer) Result {
	why := a.Explanation
	if a.Verdict == VerdictPendingReview && why == "" {
		why = msgManual
	}
	return newResult(a.Verdict, a.PointsEarned, why)
}

func newResult(v Verdict, points float64, why string) Result {
	return Result{
		Verdict:      v,
		IsCorrect:    v.IsCorrect(),
		PointsEarned: points,
		Explanation:  why,
	}
}

// Apply copies a result onto the answer, the way a store persists it.
func (a Answer) Apply(r Result) Answer {
	a.Verdict = r.Verdict
	a.PointsEarned = r.PointsEarned
	a.Explanation = r.Explanation
	return a
}
