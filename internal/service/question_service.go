package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/repository"
)

// QuestionService handles question authoring.
type QuestionService struct {
	pool         *pgxpool.Pool
	questionRepo *repository.QuestionRepository
	cache        *QuestionCache
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(pool *pgxpool.Pool, questionRepo *repository.QuestionRepository, cache *QuestionCache, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		pool:         pool,
		questionRepo: questionRepo,
		cache:        cache,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// AddQuestions inserts questions into a task atomically and refreshes the
// task's cached specs.
func (s *QuestionService) AddQuestions(ctx context.Context, taskID uuid.UUID, reqs []model.AddQuestionRequest) ([]model.Question, error) {
	created := make([]model.Question, 0, len(reqs))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		repo := s.questionRepo.WithTx(tx)
		for i := range reqs {
			q := reqs[i].ToQuestion(taskID)
			if err := repo.Create(ctx, &q); err != nil {
				return fmt.Errorf("create question %d: %w", i, err)
			}
			created = append(created, q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.cache.Warm(ctx, taskID); err != nil {
		s.log.Warn().Err(err).Str("task_id", taskID.String()).Msg("Failed to refresh cache after authoring, invalidating")
		// A stale hash would hide the new questions from graders.
		if err := s.cache.Invalidate(ctx, taskID); err != nil {
			s.log.Error().Err(err).Str("task_id", taskID.String()).Msg("Failed to invalidate question cache")
		}
	}
	return created, nil
}

// ListQuestions returns a task's questions straight from PostgreSQL.
func (s *QuestionService) ListQuestions(ctx context.Context, taskID uuid.UUID) ([]model.Question, error) {
	questions, err := s.questionRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// RefreshCache re-caches a task's question specs and reports how many were loaded.
func (s *QuestionService) RefreshCache(ctx context.Context, taskID uuid.UUID) (int, error) {
	questions, err := s.cache.Warm(ctx, taskID)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("task_id", taskID.String()).Int("questions", len(questions)).Msg("Cache refreshed")
	return len(questions), nil
}
