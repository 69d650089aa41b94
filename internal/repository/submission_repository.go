package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/scoring"
)

// SubmissionRepository handles submission data access.
type SubmissionRepository struct {
	db DBTX
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *SubmissionRepository) WithTx(tx DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: tx}
}

const submissionColumns = `id, task_id, student_id, status, total_score, max_score, percentage, started_at, submitted_at`

func scanSubmission(row interface{ Scan(...any) error }, s *model.Submission) error {
	return row.Scan(&s.ID, &s.TaskID, &s.StudentID, &s.Status,
		&s.TotalScore, &s.MaxScore, &s.Percentage, &s.StartedAt, &s.SubmittedAt)
}

// Create inserts a new submission, or returns the student's existing one for
// the task.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return scanSubmission(r.db.QueryRow(ctx,
		`INSERT INTO submissions (task_id, student_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (task_id, student_id) DO UPDATE SET task_id = EXCLUDED.task_id
		 RETURNING `+submissionColumns,
		s.TaskID, s.StudentID, model.SubmissionStatusInProgress,
	), s)
}

// GetByID retrieves a submission.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	err := scanSubmission(r.db.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id,
	), s)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// GetForUpdate retrieves a submission and locks its row. Call within a transaction.
func (r *SubmissionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	err := scanSubmission(r.db.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1 FOR UPDATE`, id,
	), s)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Complete marks a submission as submitted with its final tally.
func (r *SubmissionRepository) Complete(ctx context.Context, s *model.Submission, sum scoring.Summary) error {
	now := time.Now()
	tag, err := r.db.Exec(ctx,
		`UPDATE submissions
		 SET status = $1, total_score = $2, max_score = $3, percentage = $4, submitted_at = $5
		 WHERE id = $6 AND status = $7`,
		model.SubmissionStatusSubmitted, sum.TotalScore, sum.MaxScore, sum.Percentage, now,
		s.ID, model.SubmissionStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.Status = model.SubmissionStatusSubmitted
	s.TotalScore = sum.TotalScore
	s.MaxScore = sum.MaxScore
	s.Percentage = sum.Percentage
	s.SubmittedAt = &now
	return nil
}

// ActiveTaskIDs lists tasks that still have in-progress submissions.
func (r *SubmissionRepository) ActiveTaskIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT task_id FROM submissions WHERE status = $1`,
		model.SubmissionStatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
