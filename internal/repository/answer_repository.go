package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stemsi/lingua-backend/internal/model"
)

// AnswerRepository handles answer data access.
type AnswerRepository struct {
	db DBTX
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(db DBTX) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *AnswerRepository) WithTx(tx DBTX) *AnswerRepository {
	return &AnswerRepository{db: tx}
}

const answerColumns = `id, submission_id, question_id, answer_data, is_correct, points_earned, explanation, updated_at`

func scanAnswer(row interface{ Scan(...any) error }, a *model.Answer) error {
	return row.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.AnswerData,
		&a.IsCorrect, &a.PointsEarned, &a.Explanation, &a.UpdatedAt)
}

// ListBySubmission retrieves every answer of a submission.
func (r *AnswerRepository) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+answerColumns+`
		 FROM answers WHERE submission_id = $1
		 ORDER BY updated_at`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := scanAnswer(rows, &a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Get retrieves the answer to one question of a submission.
func (r *AnswerRepository) Get(ctx context.Context, submissionID, questionID uuid.UUID) (*model.Answer, error) {
	a := &model.Answer{}
	err := scanAnswer(r.db.QueryRow(ctx,
		`SELECT `+answerColumns+`
		 FROM answers WHERE submission_id = $1 AND question_id = $2`,
		submissionID, questionID,
	), a)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// Upsert creates or replaces an answer while its submission is in progress.
// A KeepGrade answer only replaces answer_data. The stored row is scanned
// back into a; ErrNotFound means the submission is closed or missing.
// The submission row is share-locked, so an upsert racing a submit either
// lands before the submit reads the answers or sees the closed status.
func (r *AnswerRepository) Upsert(ctx context.Context, a *model.Answer) error {
	err := scanAnswer(r.db.QueryRow(ctx,
		`INSERT INTO answers (submission_id, question_id, answer_data, is_correct, points_earned, explanation)
		 SELECT $1, $2, $3, $4, $5, $6
		 FROM submissions s
		 WHERE s.id = $1 AND s.status = 'IN_PROGRESS'
		 FOR SHARE OF s
		 ON CONFLICT (submission_id, question_id) DO UPDATE
		 SET answer_data   = EXCLUDED.answer_data,
		     is_correct    = CASE WHEN $7 THEN answers.is_correct ELSE EXCLUDED.is_correct END,
		     points_earned = CASE WHEN $7 THEN answers.points_earned ELSE EXCLUDED.points_earned END,
		     explanation   = CASE WHEN $7 THEN answers.explanation ELSE EXCLUDED.explanation END,
		     updated_at    = NOW()
		 RETURNING `+answerColumns,
		a.SubmissionID, a.QuestionID, a.AnswerData, a.IsCorrect, a.PointsEarned, a.Explanation, a.KeepGrade,
	), a)
	return notFound(err)
}

// BulkUpsert writes many graded answers using UNNEST. It follows the same
// KeepGrade and IN_PROGRESS rules as Upsert.
func (r *AnswerRepository) BulkUpsert(ctx context.Context, answers []model.Answer) error {
	var graded, kept []model.Answer
	for _, a := range answers {
		if a.KeepGrade {
			kept = append(kept, a)
		} else {
			graded = append(graded, a)
		}
	}

	if err := r.bulkUpsert(ctx, graded, `
		SET answer_data   = EXCLUDED.answer_data,
		    is_correct    = EXCLUDED.is_correct,
		    points_earned = EXCLUDED.points_earned,
		    explanation   = EXCLUDED.explanation,
		    updated_at    = NOW()`); err != nil {
		return fmt.Errorf("upsert graded answers: %w", err)
	}
	if err := r.bulkUpsert(ctx, kept, `
		SET answer_data = EXCLUDED.answer_data,
		    updated_at  = NOW()`); err != nil {
		return fmt.Errorf("upsert manual answers: %w", err)
	}
	return nil
}

func (r *AnswerRepository) bulkUpsert(ctx context.Context, answers []model.Answer, onConflict string) error {
	if len(answers) == 0 {
		return nil
	}

	n := len(answers)
	submissionIDs := make([]uuid.UUID, 0, n)
	questionIDs := make([]uuid.UUID, 0, n)
	data := make([]string, 0, n)
	correct := make([]*bool, 0, n)
	points := make([]float64, 0, n)
	explanations := make([]*string, 0, n)

	for _, a := range answers {
		payload := string(a.AnswerData)
		if payload == "" {
			payload = "null"
		}
		submissionIDs = append(submissionIDs, a.SubmissionID)
		questionIDs = append(questionIDs, a.QuestionID)
		data = append(data, payload)
		correct = append(correct, a.IsCorrect)
		points = append(points, a.PointsEarned)
		explanations = append(explanations, a.Explanation)
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO answers (submission_id, question_id, answer_data, is_correct, points_earned, explanation)
		SELECT u.submission_id, u.question_id, u.answer_data::jsonb, u.is_correct, u.points_earned, u.explanation
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::text[],
			$4::bool[],
			$5::float8[],
			$6::text[]
		) AS u (submission_id, question_id, answer_data, is_correct, points_earned, explanation)
		JOIN submissions s ON s.id = u.submission_id AND s.status = 'IN_PROGRESS'
		FOR SHARE OF s
		ON CONFLICT (submission_id, question_id) DO UPDATE`+onConflict,
		submissionIDs, questionIDs, data, correct, points, explanations)
	return err
}
