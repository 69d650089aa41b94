package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/lingua-backend/internal/scoring"
)

// AnswerJob is pushed to the answers queue for every autosave.
type AnswerJob struct {
	SubmissionID uuid.UUID       `json:"submission_id"`
	TaskID       uuid.UUID       `json:"task_id"`
	QuestionID   uuid.UUID       `json:"q_id"`
	Answer       json.RawMessage `json:"answer"`
	SavedAt      time.Time       `json:"saved_at"`
}

// QueuedAnswer is a graded answer carried by a ScoreJob.
type QueuedAnswer struct {
	QuestionID   uuid.UUID       `json:"q_id"`
	AnswerData   json.RawMessage `json:"answer_data"`
	IsCorrect    *bool           `json:"is_correct"`
	PointsEarned float64         `json:"points_earned"`
	Explanation  *string         `json:"explanation,omitempty"`
	KeepGrade    bool            `json:"keep_grade,omitempty"`
}

// ScoreJob is pushed to the scores queue when a submission is graded in memory.
type ScoreJob struct {
	SubmissionID uuid.UUID       `json:"submission_id"`
	Summary      scoring.Summary `json:"summary"`
	Answers      []QueuedAnswer  `json:"answers"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}
