package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates submission states.
type SubmissionStatus string

const (
	SubmissionStatusInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionStatusSubmitted  SubmissionStatus = "SUBMITTED"
)

// Submission is one student's attempt at a task.
type Submission struct {
	ID          uuid.UUID        `json:"id"`
	TaskID      uuid.UUID        `json:"task_id"`
	StudentID   uuid.UUID        `json:"student_id"`
	Status      SubmissionStatus `json:"status"`
	TotalScore  float64          `json:"total_score"`
	MaxScore    float64          `json:"max_score"`
	Percentage  float64          `json:"percentage"`
	StartedAt   time.Time        `json:"started_at"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
}

// Closed reports whether the submission no longer accepts answers.
func (s *Submission) Closed() bool {
	return s.Status == SubmissionStatusSubmitted
}

// StartSubmissionRequest is the payload for starting a submission.
type StartSubmissionRequest struct {
	TaskID    string `json:"task_id" binding:"required,uuid"`
	StudentID string `json:"student_id" binding:"required,uuid"`
}

// EvaluateRequest is the payload for a stateless evaluation preview.
// is_correct and points_earned describe a prior grade, which manual-review
// types retain.
type EvaluateRequest struct {
	QuestionType  string          `json:"question_type" binding:"required,max=64"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Points        float64         `json:"points" binding:"min=0"`
	Answer        json.RawMessage `json:"answer"`
	IsCorrect     *bool           `json:"is_correct"`
	PointsEarned  float64         `json:"points_earned" binding:"min=0"`
}
