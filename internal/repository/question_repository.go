package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/stemsi/lingua-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	db DBTX
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *QuestionRepository) WithTx(tx DBTX) *QuestionRepository {
	return &QuestionRepository{db: tx}
}

const questionColumns = `id, task_id, modality, question_text, question_type, options, correct_answer, points, order_num`

func scanQuestion(row interface{ Scan(...any) error }, q *model.Question) error {
	return row.Scan(&q.ID, &q.TaskID, &q.Modality, &q.QuestionText, &q.QuestionType,
		&q.Options, &q.CorrectAnswer, &q.Points, &q.OrderNum)
}

// ListByTask retrieves all questions for a given task, ordered by order_num.
func (r *QuestionRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Question, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions WHERE task_id = $1
		 ORDER BY order_num, id`, taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves one question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := scanQuestion(r.db.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id,
	), q)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO questions (task_id, modality, question_text, question_type, options, correct_answer, points, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.TaskID, q.Modality, q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Points, q.OrderNum,
	).Scan(&q.ID)
}
