package evaluator_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cucumber/godog"

	"github.com/stemsi/lingua-backend/internal/evaluator"
)

// TestEvaluationFeatures runs the evaluation scenarios through godog.
func TestEvaluationFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "evaluation",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{filepath.Join("features", "evaluation.feature")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

type evaluationState struct {
	question evaluator.Question
	answer   evaluator.Answer
	results  []evaluator.Result
}

func initializeScenario(ctx *godog.ScenarioContext) {
	state := &evaluationState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*state = evaluationState{}
		return ctx, nil
	})

	ctx.Step(`^a "([^"]+)" question worth (\d+) points with correct answer (.+)$`, state.givenQuestion)
	ctx.Step(`^the student answers "([^"]*)"$`, state.studentAnswersText)
	ctx.Step(`^the student submits (.+)$`, state.studentSubmits)
	ctx.Step(`^the answer is evaluated again$`, state.evaluate)
	ctx.Step(`^the answer is correct$`, state.verdictIs(evaluator.VerdictCorrect))
	ctx.Step(`^the answer is incorrect$`, state.verdictIs(evaluator.VerdictIncorrect))
	ctx.Step(`^the answer is pending review$`, state.verdictIs(evaluator.VerdictPendingReview))
	ctx.Step(`^the answer earns (\d+) points$`, state.earns)
	ctx.Step(`^both evaluations agree$`, state.bothAgree)
}

func (s *evaluationState) givenQuestion(questionType string, points int, correct string) error {
	if !json.Valid([]byte(correct)) {
		return fmt.Errorf("correct answer %s is not JSON", correct)
	}
	s.question = evaluator.Question{
		ID:            "q1",
		Type:          evaluator.QuestionType(questionType),
		CorrectAnswer: json.RawMessage(correct),
		Points:        float64(points),
	}
	return nil
}

func (s *evaluationState) studentAnswersText(text string) error {
	payload, err := json.Marshal(text)
	if err != nil {
		return err
	}
	s.answer = evaluator.Answer{Submitted: payload}
	return s.evaluate()
}

func (s *evaluationState) studentSubmits(payload string) error {
	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("answer %s is not JSON", payload)
	}
	s.answer = evaluator.Answer{Submitted: json.RawMessage(payload)}
	return s.evaluate()
}

func (s *evaluationState) evaluate() error {
	res, err := evaluator.Evaluate(s.question, s.answer)
	if err != nil {
		return err
	}
	s.results = append(s.results, res)
	return nil
}

func (s *evaluationState) last() (evaluator.Result, error) {
	if len(s.results) == 0 {
		return evaluator.Result{}, fmt.Errorf("no evaluation ran")
	}
	return s.results[len(s.results)-1], nil
}

func (s *evaluationState) verdictIs(want evaluator.Verdict) func() error {
	return func() error {
		res, err := s.last()
		if err != nil {
			return err
		}
		if res.Verdict != want {
			return fmt.Errorf("verdict = %s (%s), want %s", res.Verdict, res.Explanation, want)
		}
		return nil
	}
}

func (s *evaluationState) earns(points int) error {
	res, err := s.last()
	if err != nil {
		return err
	}
	if res.PointsEarned != float64(points) {
		return fmt.Errorf("points = %v, want %d", res.PointsEarned, points)
	}
	return nil
}

func (s *evaluationState) bothAgree() error {
	if len(s.results) != 2 {
		return fmt.Errorf("expected 2 evaluations, got %d", len(s.results))
	}
	if !reflect.DeepEqual(s.results[0], s.results[1]) {
		return fmt.Errorf("results differ: %+v vs %+v", s.results[0], s.results[1])
	}
	return nil
}
