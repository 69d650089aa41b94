package service

import (
	"encoding/json"
	"errors"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/evaluator"
	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/scoring"
)

// mergeAutosaved overlays raw autosaved payloads (question ID -> JSON) onto
// the stored answers of a submission. Unknown question IDs are skipped.
func mergeAutosaved(submissionID uuid.UUID, stored []model.Answer, cached map[string]string) []model.Answer {
	out := make([]model.Answer, len(stored))
	copy(out, stored)

	index := make(map[uuid.UUID]int, len(out))
	for i := range out {
		index[out[i].QuestionID] = i
	}

	for qid, raw := range cached {
		id, err := uuid.Parse(qid)
		if err != nil {
			continue
		}
		if i, ok := index[id]; ok {
			out[i].AnswerData = json.RawMessage(raw)
			continue
		}
		index[id] = len(out)
		out = append(out, model.Answer{
			SubmissionID: submissionID,
			QuestionID:   id,
			AnswerData:   json.RawMessage(raw),
		})
	}
	return out
}

// gradeAll evaluates every answer against its question in parallel and
// tallies the submission. Answers to questions outside the task are dropped
// from the returned slice.
func gradeAll(questions []model.Question, answers []model.Answer, log zerolog.Logger) ([]model.Answer, scoring.Summary) {
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	graded := make([]model.Answer, 0, len(answers))
	for _, a := range answers {
		if _, ok := byID[a.QuestionID]; !ok {
			log.Warn().Str("question_id", a.QuestionID.String()).Msg("Answer to unknown question skipped")
			continue
		}
		graded = append(graded, a)
	}

	results := make([]evaluator.Result, len(graded))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	for i := range graded {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer func() { <-sem; wg.Done() }()
			q := byID[graded[i].QuestionID]
			res, err := graded[i].Grade(q)
			if errors.Is(err, evaluator.ErrUnsupportedType) {
				log.Warn().
					Str("question_id", q.ID.String()).
					Str("question_type", q.QuestionType).
					Msg("Unsupported question type, left for manual review")
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	specs := make([]evaluator.Question, len(questions))
	for i := range questions {
		specs[i] = questions[i].Spec()
	}
	byQuestion := make(map[string]evaluator.Result, len(graded))
	for i := range graded {
		byQuestion[graded[i].QuestionID.String()] = results[i]
	}
	return graded, scoring.Tally(specs, byQuestion)
}
