package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/lingua-backend/internal/evaluator"
	"github.com/stemsi/lingua-backend/internal/scoring"
)

// AnswerView is the API representation of an answer. Verdict is filled from
// Answer.Verdict.
type AnswerView struct {
	ID           uuid.UUID       `json:"id"`
	QuestionID   uuid.UUID       `json:"question_id"`
	AnswerData   json.RawMessage `json:"answer_data"`
	Verdict      string          `json:"verdict"`
	IsCorrect    *bool           `json:"is_correct"`
	PointsEarned float64         `json:"points_earned"`
	Explanation  *string         `json:"explanation,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SubmissionView is a submission with its answers.
type SubmissionView struct {
	ID          uuid.UUID        `json:"id"`
	TaskID      uuid.UUID        `json:"task_id"`
	StudentID   uuid.UUID        `json:"student_id"`
	Status      SubmissionStatus `json:"status"`
	TotalScore  float64          `json:"total_score"`
	MaxScore    float64          `json:"max_score"`
	Percentage  float64          `json:"percentage"`
	StartedAt   time.Time        `json:"started_at"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
	Answers     []AnswerView     `json:"answers"`
	Summary     *scoring.Summary `json:"summary,omitempty"`
}

// EvaluationView is the result of a preview evaluation.
type EvaluationView struct {
	QuestionType string            `json:"question_type"`
	Family       string            `json:"family"`
	Automatic    bool              `json:"automatic"`
	Verdict      evaluator.Verdict `json:"verdict"`
	IsCorrect    *bool             `json:"is_correct"`
	PointsEarned float64           `json:"points_earned"`
	Explanation  string            `json:"explanation,omitempty"`
}
