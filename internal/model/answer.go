package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/lingua-backend/internal/evaluator"
)

var (
	ErrNoAnswer        = errors.New("no answer field provided")
	ErrAmbiguousAnswer = errors.New("more than one answer field provided")
)

// Answer is a student's response to one question of a submission.
type Answer struct {
	ID           uuid.UUID       `json:"id"`
	SubmissionID uuid.UUID       `json:"submission_id"`
	QuestionID   uuid.UUID       `json:"question_id"`
	AnswerData   json.RawMessage `json:"answer_data"`
	IsCorrect    *bool           `json:"is_correct"`
	PointsEarned float64         `json:"points_earned"`
	Explanation  *string         `json:"explanation,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// KeepGrade is set for manual-review questions; stores must not
	// overwrite a grade that is already persisted.
	KeepGrade bool `json:"-"`
}

// Graded returns the answer as the evaluator sees it.
func (a *Answer) Graded() evaluator.Answer {
	g := evaluator.Answer{
		ID:           a.ID.String(),
		Submitted:    a.AnswerData,
		Verdict:      evaluator.VerdictFromBool(a.IsCorrect),
		PointsEarned: a.PointsEarned,
	}
	if a.Explanation != nil {
		g.Explanation = *a.Explanation
	}
	return g
}

// Verdict renders the tri-state grade.
func (a Answer) Verdict() string {
	return evaluator.VerdictFromBool(a.IsCorrect).String()
}

// Grade evaluates the answer against q and records the result on a.
// The returned error is evaluator.ErrUnsupportedType or nil; the answer is
// graded either way.
func (a *Answer) Grade(q *Question) (evaluator.Result, error) {
	res, err := evaluator.Evaluate(q.Spec(), a.Graded())

	a.IsCorrect = res.IsCorrect
	a.PointsEarned = res.PointsEarned
	a.Explanation = nil
	if res.Explanation != "" {
		why := res.Explanation
		a.Explanation = &why
	}

	family, ok := evaluator.Lookup(evaluator.QuestionType(q.QuestionType))
	a.KeepGrade = !ok || !family.Automatic()
	return res, err
}

// SaveAnswerRequest carries a student's answer. Exactly one field is set;
// the legacy names are kept for clients of older task players.
type SaveAnswerRequest struct {
	StudentAnswer    *string         `json:"student_answer"`
	TextAnswer       *string         `json:"text_answer"`
	SelectedOptionID json.RawMessage `json:"selected_option_id"`
	AnswerData       json.RawMessage `json:"answer_data"`
}

// Payload returns the single populated field as raw JSON.
func (r *SaveAnswerRequest) Payload() (json.RawMessage, error) {
	var (
		out json.RawMessage
		n   int
	)
	if r.StudentAnswer != nil {
		out, _ = json.Marshal(*r.StudentAnswer)
		n++
	}
	if r.TextAnswer != nil {
		out, _ = json.Marshal(*r.TextAnswer)
		n++
	}
	if present(r.SelectedOptionID) {
		out = r.SelectedOptionID
		n++
	}
	if present(r.AnswerData) {
		out = r.AnswerData
		n++
	}

	switch n {
	case 0:
		return nil, ErrNoAnswer
	case 1:
		return out, nil
	default:
		return nil, ErrAmbiguousAnswer
	}
}

func present(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && !bytes.Equal(t, []byte("null"))
}
