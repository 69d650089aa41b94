package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/config"
	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/repository"
)

// QuestionCache keeps each task's question specs in a Redis hash so answers
// can be graded without a database round trip.
type QuestionCache struct {
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	ttl          time.Duration
	log          zerolog.Logger
}

// NewQuestionCache creates a new QuestionCache.
func NewQuestionCache(questionRepo *repository.QuestionRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *QuestionCache {
	return &QuestionCache{
		questionRepo: questionRepo,
		rdb:          rdb,
		ttl:          ttl,
		log:          log.With().Str("component", "question_cache").Logger(),
	}
}

// Warm loads a task's questions from PostgreSQL and replaces the cached hash.
func (c *QuestionCache) Warm(ctx context.Context, taskID uuid.UUID) ([]model.Question, error) {
	questions, err := c.questionRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	fields := make(map[string]interface{}, len(questions))
	for i := range questions {
		raw, err := json.Marshal(&questions[i])
		if err != nil {
			return nil, fmt.Errorf("marshal question: %w", err)
		}
		fields[questions[i].ID.String()] = raw
	}

	key := config.CacheKey.TaskQuestionsKey(taskID.String())
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("cache to redis: %w", err)
	}

	c.log.Debug().
		Str("task_id", taskID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return questions, nil
}

// Questions returns every question of a task ordered by order_num, warming
// the cache on a miss.
func (c *QuestionCache) Questions(ctx context.Context, taskID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.TaskQuestionsKey(taskID.String())
	cached, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("task_id", taskID.String()).Msg("Cache read failed, using database")
		return c.questionRepo.ListByTask(ctx, taskID)
	}
	if len(cached) == 0 {
		return c.Warm(ctx, taskID)
	}

	questions := make([]model.Question, 0, len(cached))
	for _, raw := range cached {
		var q model.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].OrderNum != questions[j].OrderNum {
			return questions[i].OrderNum < questions[j].OrderNum
		}
		return questions[i].ID.String() < questions[j].ID.String()
	})
	return questions, nil
}

// Question returns one question of a task. ErrQuestionNotInTask is returned
// when the question belongs to another task or does not exist.
func (c *QuestionCache) Question(ctx context.Context, taskID, questionID uuid.UUID) (*model.Question, error) {
	key := config.CacheKey.TaskQuestionsKey(taskID.String())
	raw, err := c.rdb.HGet(ctx, key, questionID.String()).Bytes()
	if err == nil {
		var q model.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		return &q, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Str("task_id", taskID.String()).Msg("Cache read failed, using database")
	}

	// Miss: the hash may be cold or the question may have been added since.
	questions, err := c.Warm(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrNoQuestions) {
			return nil, ErrQuestionNotInTask
		}
		return nil, err
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, ErrQuestionNotInTask
}

// Invalidate drops a task's cached questions.
func (c *QuestionCache) Invalidate(ctx context.Context, taskID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.TaskQuestionsKey(taskID.String())).Err()
}

// Prewarm loads the given tasks into Redis before traffic arrives. Tasks that
// fail to load are logged and skipped.
func (c *QuestionCache) Prewarm(ctx context.Context, taskIDs []uuid.UUID) int {
	warmed := 0
	for _, id := range taskIDs {
		if _, err := c.Warm(ctx, id); err != nil {
			c.log.Warn().Err(err).Str("task_id", id.String()).Msg("Failed to warm task, skipping")
			continue
		}
		warmed++
	}
	c.log.Info().Int("warmed", warmed).Int("total", len(taskIDs)).Msg("Prewarming complete")
	return warmed
}
