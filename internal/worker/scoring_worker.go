package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jinzhu/copier"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/config"
	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/repository"
)

const (
	ScoreBatchSize    = 50
	ScoreBatchTimeout = 2 * time.Second
	ScorePollTimeout  = 1 * time.Second
)

// ScoringWorker consumes persist_scores_queue and finalizes submissions that
// were graded in memory.
type ScoringWorker struct {
	pool    *pgxpool.Pool
	answers *repository.AnswerRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

func NewScoringWorker(pool *pgxpool.Pool, answers *repository.AnswerRepository, rdb *redis.Client, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		pool:    pool,
		answers: answers,
		rdb:     rdb,
		log:     log.With().Str("component", "scoring_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ScoringWorker started")

	batch := make([]*model.ScoreJob, 0, ScoreBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ScoreBatchSize || time.Since(lastFlush) >= ScoreBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ScorePollTimeout, config.WorkerKey.PersistScoresQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.ScoreJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

// ----------------------------------------------------------------
// Batch Upsert/Update Wrapper
// ----------------------------------------------------------------

func (w *ScoringWorker) flushSafe(ctx context.Context, batch []*model.ScoreJob) {
	if len(batch) == 0 {
		return
	}

	if err := w.persistBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk score update failed, using fallback")

		done := batch[:0:0]
		for _, job := range batch {
			if err := w.persistBatch(ctx, []*model.ScoreJob{job}); err != nil {
				w.log.Error().Err(err).
					Str("submission_id", job.SubmissionID.String()).
					Msg("single persist failed, requeueing")
				raw, _ := json.Marshal(job)
				w.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, raw)
				continue
			}
			done = append(done, job)
		}
		w.bulkClearAutosavedAnswers(ctx, done)
		return
	}

	// After successful score updates → delete autosave buffers in Redis
	w.bulkClearAutosavedAnswers(ctx, batch)
	w.log.Debug().Int("count", len(batch)).Msg("Batch persisted")
}

// persistBatch writes every graded answer and then every submission tally in
// one transaction.
func (w *ScoringWorker) persistBatch(ctx context.Context, batch []*model.ScoreJob) error {
	var answers []model.Answer
	for _, job := range batch {
		var graded []model.Answer
		if err := copier.Copy(&graded, &job.Answers); err != nil {
			return fmt.Errorf("copy answers: %w", err)
		}
		for i := range graded {
			graded[i].SubmissionID = job.SubmissionID
		}
		answers = append(answers, graded...)
	}

	return pgx.BeginFunc(ctx, w.pool, func(tx pgx.Tx) error {
		if err := w.answers.WithTx(tx).BulkUpsert(ctx, answers); err != nil {
			return err
		}
		return bulkCompleteSubmissions(ctx, tx, batch)
	})
}

// ----------------------------------------------------------------
// BULK PostgreSQL UPDATE using UNNEST + alias
// ----------------------------------------------------------------

func bulkCompleteSubmissions(ctx context.Context, tx pgx.Tx, batch []*model.ScoreJob) error {
	n := len(batch)

	ids := make([]uuid.UUID, 0, n)
	totals := make([]float64, 0, n)
	maxes := make([]float64, 0, n)
	percentages := make([]float64, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, job := range batch {
		ids = append(ids, job.SubmissionID)
		totals = append(totals, job.Summary.TotalScore)
		maxes = append(maxes, job.Summary.MaxScore)
		percentages = append(percentages, job.Summary.Percentage)
		submittedAts = append(submittedAts, job.SubmittedAt)
	}

	query := `
		UPDATE submissions AS s
		SET status = 'SUBMITTED',
		    total_score = t.total_score,
		    max_score = t.max_score,
		    percentage = t.percentage,
		    submitted_at = t.submitted_at
		FROM (
			SELECT
				u.id,
				u.total_score,
				u.max_score,
				u.percentage,
				u.submitted_at
			FROM UNNEST(
				$1::uuid[],
				$2::float8[],
				$3::float8[],
				$4::float8[],
				$5::timestamptz[]
			) AS u (id, total_score, max_score, percentage, submitted_at)
		) AS t
		WHERE s.id = t.id
		  AND s.status = 'IN_PROGRESS'
	`

	_, err := tx.Exec(ctx, query, ids, totals, maxes, percentages, submittedAts)
	return err
}

// ----------------------------------------------------------------
// BULK Redis DEL for clearing autosaved answers
// ----------------------------------------------------------------

func (w *ScoringWorker) bulkClearAutosavedAnswers(ctx context.Context, batch []*model.ScoreJob) {
	if len(batch) == 0 {
		return
	}
	pipe := w.rdb.Pipeline()

	for _, job := range batch {
		pipe.Del(ctx, config.CacheKey.SubmissionAnswersKey(job.SubmissionID.String()))
	}

	_, _ = pipe.Exec(ctx)
}
