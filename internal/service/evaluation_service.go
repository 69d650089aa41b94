package service

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
	"github.com/stemsi/lingua-backend/internal/evaluator"
	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/repository"
	"github.com/stemsi/lingua-backend/internal/scoring"
)

// closedMarkerTTL outlives any plausible queue backlog. Autosave hashes
// share it so a hash orphaned by a racing save still expires.
const closedMarkerTTL = 24 * time.Hour

// bufferAnswerScript writes an autosave into the submission's hash and
// optionally queues a persistence job, unless the submission has been
// claimed by a submit. Returns 0 when claimed.
//
//	KEYS: closed marker, answers hash, answers queue
//	ARGV: question ID, payload, hash TTL seconds, job ("" for none)
var bufferAnswerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
redis.call('EXPIRE', KEYS[2], ARGV[3])
if ARGV[4] ~= '' then
	redis.call('RPUSH', KEYS[3], ARGV[4])
end
return 1
`)

// EvaluationService grades answers and finalizes submissions.
type EvaluationService struct {
	pool           *pgxpool.Pool
	submissionRepo *repository.SubmissionRepository
	answerRepo     *repository.AnswerRepository
	questions      *QuestionCache
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(
	pool *pgxpool.Pool,
	submissionRepo *repository.SubmissionRepository,
	answerRepo *repository.AnswerRepository,
	questions *QuestionCache,
	rdb *redis.Client,
	log zerolog.Logger,
) *EvaluationService {
	return &EvaluationService{
		pool:           pool,
		submissionRepo: submissionRepo,
		answerRepo:     answerRepo,
		questions:      questions,
		rdb:            rdb,
		log:            log.With().Str("component", "evaluation_service").Logger(),
	}
}

// Preview evaluates an ad-hoc question and answer without touching storage.
// For an unknown question type the manual-review view is returned together
// with evaluator.ErrUnsupportedType.
func Preview(req *model.EvaluateRequest) (*model.EvaluationView, error) {
	q := evaluator.Question{
		Type:          evaluator.QuestionType(req.QuestionType),
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
	}
	a := evaluator.Answer{
		Submitted:    req.Answer,
		Verdict:      evaluator.VerdictFromBool(req.IsCorrect),
		PointsEarned: req.PointsEarned,
	}

	res, err := evaluator.Evaluate(q, a)

	view := &model.EvaluationView{}
	if cerr := copier.Copy(view, &res); cerr != nil {
		return nil, fmt.Errorf("copy result: %w", cerr)
	}
	view.QuestionType = string(q.Type.Canonical())
	if family, ok := evaluator.Lookup(q.Type); ok {
		view.Family = family.String()
		view.Automatic = family.Automatic()
	}
	return view, err
}

// StartSubmission opens a submission for a student on a task. Starting twice
// returns the existing submission.
func (s *EvaluationService) StartSubmission(ctx context.Context, req *model.StartSubmissionRequest) (*model.SubmissionView, error) {
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("parse task id: %w", err)
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}

	if _, err := s.questions.Questions(ctx, taskID); err != nil {
		return nil, err
	}

	sub := &model.Submission{TaskID: taskID, StudentID: studentID}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	s.log.Info().
		Str("submission_id", sub.ID.String()).
		Str("task_id", taskID.String()).
		Msg("Submission started")
	return s.view(sub, nil, nil)
}

// OpenSubmission returns an in-progress submission, or ErrSubmissionClosed.
func (s *EvaluationService) OpenSubmission(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	sub, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Closed() {
		return nil, ErrSubmissionClosed
	}
	return sub, nil
}

// GetSubmission returns a submission with its stored answers and a live tally.
func (s *EvaluationService) GetSubmission(ctx context.Context, id uuid.UUID) (*model.SubmissionView, error) {
	sub, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.ListBySubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	questions, err := s.questions.Questions(ctx, sub.TaskID)
	if err != nil && !errors.Is(err, ErrNoQuestions) {
		return nil, err
	}

	sum := tallyStored(questions, answers)
	return s.view(sub, answers, &sum)
}

// SaveAnswer grades one answer synchronously and upserts it. A manual-review
// answer keeps the grade already stored for it.
func (s *EvaluationService) SaveAnswer(ctx context.Context, submissionID, questionID uuid.UUID, payload json.RawMessage) (*model.AnswerView, error) {
	sub, err := s.OpenSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	// A buffered submit may not have reached PostgreSQL yet.
	if err := s.checkNotClaimed(ctx, submissionID); err != nil {
		return nil, err
	}
	q, err := s.questions.Question(ctx, sub.TaskID, questionID)
	if err != nil {
		return nil, err
	}

	a, err := s.answerRepo.Get(ctx, submissionID, questionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("get answer: %w", err)
		}
		a = &model.Answer{SubmissionID: submissionID, QuestionID: questionID}
	}
	a.AnswerData = payload

	if _, err := a.Grade(q); errors.Is(err, evaluator.ErrUnsupportedType) {
		s.log.Warn().
			Str("question_id", q.ID.String()).
			Str("question_type", q.QuestionType).
			Msg("Unsupported question type, left for manual review")
	}

	if err := s.answerRepo.Upsert(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionClosed
		}
		return nil, fmt.Errorf("upsert answer: %w", err)
	}

	// Keep the autosave buffer in step so a later submit does not resurrect
	// an older payload. A submit that claimed the submission meanwhile has
	// already read this row.
	if err := s.bufferAnswer(ctx, submissionID, questionID, payload, nil); err != nil && !errors.Is(err, ErrSubmissionClosed) {
		s.log.Warn().Err(err).Msg("Failed to mirror answer into autosave buffer")
	}

	view := &model.AnswerView{}
	if err := copier.Copy(view, a); err != nil {
		return nil, fmt.Errorf("copy answer: %w", err)
	}
	return view, nil
}

// Submit re-evaluates every answer of a submission, including autosaves not
// yet persisted, and records the tally, all in one transaction.
func (s *EvaluationService) Submit(ctx context.Context, submissionID uuid.UUID) (*model.SubmissionView, error) {
	if err := s.claim(ctx, submissionID); err != nil {
		return nil, err
	}

	answersKey := config.CacheKey.SubmissionAnswersKey(submissionID.String())
	cached, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		s.release(submissionID)
		return nil, fmt.Errorf("read autosaved answers: %w", err)
	}

	var (
		sub    *model.Submission
		graded []model.Answer
		sum    scoring.Summary
	)
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		subs := s.submissionRepo.WithTx(tx)
		answers := s.answerRepo.WithTx(tx)

		locked, err := subs.GetForUpdate(ctx, submissionID)
		if err != nil {
			return err
		}
		if locked.Closed() {
			return ErrSubmissionClosed
		}
		sub = locked

		questions, err := s.questions.Questions(ctx, sub.TaskID)
		if err != nil {
			return err
		}
		stored, err := answers.ListBySubmission(ctx, submissionID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}

		graded, sum = gradeAll(questions, mergeAutosaved(submissionID, stored, cached), s.log)
		if err := answers.BulkUpsert(ctx, graded); err != nil {
			return err
		}
		return subs.Complete(ctx, sub, sum)
	})
	if err != nil {
		s.release(submissionID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if err := s.rdb.Del(ctx, answersKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear autosave buffer")
	}

	stored, err := s.answerRepo.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	s.log.Info().
		Str("submission_id", submissionID.String()).
		Float64("score", sum.TotalScore).
		Float64("max_score", sum.MaxScore).
		Int("pending_review", sum.Pending).
		Msg("Submission graded")
	return s.view(sub, stored, &sum)
}

// Autosave buffers a raw answer in Redis and queues it for persistence.
func (s *EvaluationService) Autosave(ctx context.Context, sub *model.Submission, questionID uuid.UUID, payload json.RawMessage) error {
	job, err := json.Marshal(model.AnswerJob{
		SubmissionID: sub.ID,
		TaskID:       sub.TaskID,
		QuestionID:   questionID,
		Answer:       payload,
		SavedAt:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal answer job: %w", err)
	}

	return s.bufferAnswer(ctx, sub.ID, questionID, payload, job)
}

// bufferAnswer stores a payload in the autosave hash, and queues job when
// given, atomically with respect to the closed marker.
func (s *EvaluationService) bufferAnswer(ctx context.Context, submissionID, questionID uuid.UUID, payload json.RawMessage, job []byte) error {
	keys := []string{
		config.CacheKey.SubmissionClosedKey(submissionID.String()),
		config.CacheKey.SubmissionAnswersKey(submissionID.String()),
		config.WorkerKey.PersistAnswersQueue,
	}
	stored, err := bufferAnswerScript.Run(ctx, s.rdb, keys,
		questionID.String(), string(payload), int(closedMarkerTTL.Seconds()), string(job),
	).Int()
	if err != nil {
		return fmt.Errorf("buffer answer: %w", err)
	}
	if stored == 0 {
		return ErrSubmissionClosed
	}
	return nil
}

// SubmitBuffered grades a submission in memory from its autosave buffer and
// queues the result for the scoring worker.
func (s *EvaluationService) SubmitBuffered(ctx context.Context, sub *model.Submission) (*scoring.Summary, error) {
	if err := s.claim(ctx, sub.ID); err != nil {
		return nil, err
	}

	fail := func(err error) (*scoring.Summary, error) {
		s.release(sub.ID)
		return nil, err
	}

	cached, err := s.rdb.HGetAll(ctx, config.CacheKey.SubmissionAnswersKey(sub.ID.String())).Result()
	if err != nil {
		return fail(fmt.Errorf("read autosaved answers: %w", err))
	}
	questions, err := s.questions.Questions(ctx, sub.TaskID)
	if err != nil {
		return fail(err)
	}

	graded, sum := gradeAll(questions, mergeAutosaved(sub.ID, nil, cached), s.log)

	job := model.ScoreJob{SubmissionID: sub.ID, Summary: sum, SubmittedAt: time.Now()}
	if err := copier.Copy(&job.Answers, &graded); err != nil {
		return fail(fmt.Errorf("copy answers: %w", err))
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fail(fmt.Errorf("marshal score job: %w", err))
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistScoresQueue, raw).Err(); err != nil {
		return fail(fmt.Errorf("enqueue score: %w", err))
	}
	return &sum, nil
}

// claim sets the closed marker; a second claim fails with ErrSubmissionClosed.
func (s *EvaluationService) claim(ctx context.Context, submissionID uuid.UUID) error {
	ok, err := s.rdb.SetNX(ctx, config.CacheKey.SubmissionClosedKey(submissionID.String()), 1, closedMarkerTTL).Result()
	if err != nil {
		return fmt.Errorf("set closed marker: %w", err)
	}
	if !ok {
		return ErrSubmissionClosed
	}
	return nil
}

// checkNotClaimed fails with ErrSubmissionClosed once a submit has claimed
// the submission.
func (s *EvaluationService) checkNotClaimed(ctx context.Context, submissionID uuid.UUID) error {
	n, err := s.rdb.Exists(ctx, config.CacheKey.SubmissionClosedKey(submissionID.String())).Result()
	if err != nil {
		return fmt.Errorf("check closed marker: %w", err)
	}
	if n > 0 {
		return ErrSubmissionClosed
	}
	return nil
}

func (s *EvaluationService) release(submissionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.Del(ctx, config.CacheKey.SubmissionClosedKey(submissionID.String())).Err(); err != nil {
		s.log.Error().Err(err).Str("submission_id", submissionID.String()).Msg("Failed to release closed marker")
	}
}

func (s *EvaluationService) getSubmission(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *EvaluationService) view(sub *model.Submission, answers []model.Answer, sum *scoring.Summary) (*model.SubmissionView, error) {
	view := &model.SubmissionView{}
	if err := copier.Copy(view, sub); err != nil {
		return nil, fmt.Errorf("copy submission: %w", err)
	}
	view.Answers = []model.AnswerView{}
	if len(answers) > 0 {
		if err := copier.Copy(&view.Answers, &answers); err != nil {
			return nil, fmt.Errorf("copy answers: %w", err)
		}
	}
	view.Summary = sum
	return view, nil
}

// tallyStored sums persisted grades without re-evaluating them.
func tallyStored(questions []model.Question, answers []model.Answer) scoring.Summary {
	specs := make([]evaluator.Question, len(questions))
	for i := range questions {
		specs[i] = questions[i].Spec()
	}
	results := make(map[string]evaluator.Result, len(answers))
	for _, a := range answers {
		v := evaluator.VerdictFromBool(a.IsCorrect)
		results[a.QuestionID.String()] = evaluator.Result{
			Verdict:      v,
			IsCorrect:    a.IsCorrect,
			PointsEarned: a.PointsEarned,
		}
	}
	return scoring.Tally(specs, results)
}
