package model

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/stemsi/lingua-backend/internal/evaluator"
)

// Modality is the skill a task assesses.
type Modality string

const (
	ModalityReading   Modality = "reading"
	ModalityListening Modality = "listening"
	ModalitySpeaking  Modality = "speaking"
	ModalityWriting   Modality = "writing"
)

// Question represents a single task question with its answer key.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	TaskID        uuid.UUID       `json:"task_id"`
	Modality      Modality        `json:"modality"`
	QuestionText  string          `json:"question_text"`
	QuestionType  string          `json:"question_type"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Points        float64         `json:"points"`
	OrderNum      int             `json:"order_num"`
}

// Spec returns the evaluation inputs of the question.
func (q *Question) Spec() evaluator.Question {
	return evaluator.Question{
		ID:            q.ID.String(),
		Type:          evaluator.QuestionType(q.QuestionType),
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Points:        q.Points,
	}
}

// AddQuestionRequest is the payload for authoring a question on a task.
// correct_answers and points_value are accepted as aliases.
type AddQuestionRequest struct {
	Modality       string          `json:"modality" binding:"required,oneof=reading listening speaking writing"`
	QuestionText   string          `json:"question_text" binding:"required,min=1,max=4000"`
	QuestionType   string          `json:"question_type" binding:"required,question_type"`
	Options        json.RawMessage `json:"options"`
	CorrectAnswer  json.RawMessage `json:"correct_answer"`
	CorrectAnswers json.RawMessage `json:"correct_answers"`
	Points         float64         `json:"points" binding:"min=0"`
	PointsValue    float64         `json:"points_value" binding:"min=0"`
	OrderNum       int             `json:"order_num" binding:"min=0"`
}

// ToQuestion resolves aliases and defaults into a storable question.
func (r *AddQuestionRequest) ToQuestion(taskID uuid.UUID) Question {
	key := r.CorrectAnswer
	if !present(key) {
		key = r.CorrectAnswers
	}
	points := r.Points
	if points <= 0 {
		points = r.PointsValue
	}
	if points <= 0 {
		points = 1
	}
	options := r.Options
	if !present(options) {
		options = json.RawMessage(`[]`)
	}
	if !present(key) {
		key = json.RawMessage(`null`)
	}
	return Question{
		TaskID:        taskID,
		Modality:      Modality(r.Modality),
		QuestionText:  r.QuestionText,
		QuestionType:  string(evaluator.QuestionType(r.QuestionType).Canonical()),
		Options:       options,
		CorrectAnswer: key,
		Points:        points,
		OrderNum:      r.OrderNum,
	}
}

// ReplaceQuestionsRequest is the payload for bulk authoring questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
