package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/lingua-backend/internal/evaluator"
)

// caseFile is the top-level fixture document.
type caseFile struct {
	Cases []fixtureCase `yaml:"cases"`
}

type fixtureCase struct {
	Name     string          `yaml:"name"`
	Question fixtureQuestion `yaml:"question"`
	Answer   any             `yaml:"answer"`
	// Prior verdict carried by manual-review answers.
	Prior  *fixturePrior  `yaml:"prior,omitempty"`
	Expect *fixtureExpect `yaml:"expect,omitempty"`
}

type fixtureQuestion struct {
	Type          string  `yaml:"type"`
	Options       any     `yaml:"options,omitempty"`
	CorrectAnswer any     `yaml:"correct_answer,omitempty"`
	Points        float64 `yaml:"points,omitempty"`
}

type fixturePrior struct {
	Verdict string  `yaml:"verdict"`
	Points  float64 `yaml:"points"`
}

type fixtureExpect struct {
	Verdict string   `yaml:"verdict"`
	Points  *float64 `yaml:"points,omitempty"`
}

// outcome is one evaluated case as printed by the CLI.
type outcome struct {
	Name   string           `json:"name"`
	Result evaluator.Result `json:"result"`
	Error  string           `json:"error,omitempty"`
	Failed string           `json:"failed,omitempty"`
}

func loadCases(path string) ([]fixtureCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return parseCases(data)
}

func parseCases(data []byte) ([]fixtureCase, error) {
	var file caseFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(file.Cases) == 0 {
		return nil, errors.New("fixture file has no cases")
	}
	for i, c := range file.Cases {
		if c.Name == "" {
			file.Cases[i].Name = fmt.Sprintf("case %d", i+1)
		}
		if c.Question.Type == "" {
			return nil, fmt.Errorf("%s: question.type is required", file.Cases[i].Name)
		}
	}
	return file.Cases, nil
}

// toRaw re-encodes a decoded YAML value as JSON. Absent values stay nil.
func toRaw(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(jsonable(v))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// jsonable rewrites YAML maps with non-string keys, such as 1: A, into
// string-keyed maps.
func jsonable(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonable(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = jsonable(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonable(e)
		}
		return out
	default:
		return v
	}
}

func (c fixtureCase) build() (evaluator.Question, evaluator.Answer, error) {
	var (
		q   = evaluator.Question{ID: c.Name, Type: evaluator.QuestionType(c.Question.Type), Points: c.Question.Points}
		a   evaluator.Answer
		err error
	)
	if q.Options, err = toRaw(c.Question.Options); err != nil {
		return q, a, fmt.Errorf("options: %w", err)
	}
	if q.CorrectAnswer, err = toRaw(c.Question.CorrectAnswer); err != nil {
		return q, a, fmt.Errorf("correct_answer: %w", err)
	}
	if a.Submitted, err = toRaw(c.Answer); err != nil {
		return q, a, fmt.Errorf("answer: %w", err)
	}
	if c.Prior != nil {
		if err := a.Verdict.UnmarshalText([]byte(c.Prior.Verdict)); err != nil {
			return q, a, fmt.Errorf("prior: %w", err)
		}
		a.PointsEarned = c.Prior.Points
	}
	return q, a, nil
}

// run evaluates one case and checks it against its expectation.
func (c fixtureCase) run() outcome {
	out := outcome{Name: c.Name}
	q, a, err := c.build()
	if err != nil {
		out.Error = err.Error()
		out.Failed = "invalid fixture"
		return out
	}

	res, err := evaluator.Evaluate(q, a)
	out.Result = res
	if err != nil {
		out.Error = err.Error()
	}
	if c.Expect == nil {
		return out
	}

	var want evaluator.Verdict
	if err := want.UnmarshalText([]byte(c.Expect.Verdict)); err != nil {
		out.Failed = err.Error()
		return out
	}
	if res.Verdict != want {
		out.Failed = fmt.Sprintf("verdict %s, want %s", res.Verdict, want)
		return out
	}
	if p := c.Expect.Points; p != nil && res.PointsEarned != *p {
		out.Failed = fmt.Sprintf("points %g, want %g", res.PointsEarned, *p)
	}
	return out
}
