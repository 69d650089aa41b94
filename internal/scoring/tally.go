// Package scoring sums evaluated answers into a submission score.
package scoring

import (
	"math"

	"github.com/stemsi/lingua-backend/internal/evaluator"
)

// Summary is the aggregate persisted on a submission.
type Summary struct {
	TotalScore float64 `json:"total_score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Unanswered int     `json:"unanswered"`
	Pending    int     `json:"pending_review"`
}

// Tally aggregates results keyed by question ID over every question of a task.
// Questions graded by a reviewer (or of an unsupported type) are counted as
// pending and left out of both the score and the maximum. Unanswered automatic
// questions count towards the maximum with zero points.
func Tally(questions []evaluator.Question, results map[string]evaluator.Result) Summary {
	var s Summary
	for _, q := range questions {
		family, ok := evaluator.Lookup(q.Type)
		if !ok || !family.Automatic() {
			s.Pending++
			continue
		}

		s.MaxScore += q.PointValue()

		res, answered := results[q.ID]
		switch {
		case !answered:
			s.Unanswered++
		case res.Verdict == evaluator.VerdictCorrect:
			s.Correct++
			s.TotalScore += res.PointsEarned
		default:
			s.Incorrect++
		}
	}

	if s.MaxScore > 0 {
		s.Percentage = round2(s.TotalScore / s.MaxScore * 100)
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
