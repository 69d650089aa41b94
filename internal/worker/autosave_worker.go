package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/config"
	"github.com/stemsi/lingua-backend/internal/evaluator"
	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/repository"
	"github.com/stemsi/lingua-backend/internal/service"
)

// QuestionSource resolves the question an answer belongs to.
type QuestionSource interface {
	Question(ctx context.Context, taskID, questionID uuid.UUID) (*model.Question, error)
}

// AutosaveWorker consumes persist_answers_queue, grades each answer and
// UPSERTs it to PostgreSQL.
type AutosaveWorker struct {
	answers   *repository.AnswerRepository
	questions QuestionSource
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(answers *repository.AnswerRepository, questions QuestionSource, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		answers:   answers,
		questions: questions,
		rdb:       rdb,
		log:       log.With().Str("component", "autosave_worker").Logger(),
	}
}

// errDiscard marks a job that can never succeed and must not be retried.
var errDiscard = errors.New("discard job")

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var job model.AnswerJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAnswer(ctx, &job); err != nil {
		if errors.Is(err, errDiscard) {
			w.log.Debug().Err(err).Str("submission_id", job.SubmissionID.String()).Msg("Answer dropped")
			return
		}
		w.log.Error().Err(err).
			Str("submission_id", job.SubmissionID.String()).
			Str("question_id", job.QuestionID.String()).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AutosaveWorker) persistAnswer(ctx context.Context, job *model.AnswerJob) error {
	q, err := w.questions.Question(ctx, job.TaskID, job.QuestionID)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotInTask) {
			return fmt.Errorf("%w: %w", errDiscard, err)
		}
		return err
	}

	a := &model.Answer{
		SubmissionID: job.SubmissionID,
		QuestionID:   job.QuestionID,
		AnswerData:   job.Answer,
	}
	if _, err := a.Grade(q); errors.Is(err, evaluator.ErrUnsupportedType) {
		w.log.Warn().Str("question_type", q.QuestionType).Msg("Unsupported question type, left for manual review")
	}

	// UPSERT the answer; a closed submission rejects it.
	if err := w.answers.Upsert(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: submission closed", errDiscard)
		}
		return err
	}
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			break
		}

		var job model.AnswerJob
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistAnswer(ctx, &job); err != nil {
			if errors.Is(err, errDiscard) {
				continue
			}
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
