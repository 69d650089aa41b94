package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stemsi/lingua-backend/internal/evaluator"
)

func TestFixtureFilePasses(t *testing.T) {
	cases, err := loadCases("testdata/cases.yaml")
	require.NoError(t, err)
	require.Len(t, cases, 7)

	var out bytes.Buffer
	failed := report(&out, cases, false)
	require.Zero(t, failed, out.String())
	require.Equal(t, 7, strings.Count(out.String(), "ok  "))
}

func TestParseCasesRejectsUnknownFields(t *testing.T) {
	_, err := parseCases([]byte(`
cases:
  - name: typo
    question: {type: essay}
    expected: {verdict: correct}
`))
	require.Error(t, err)
}

func TestParseCasesRequiresType(t *testing.T) {
	_, err := parseCases([]byte(`
cases:
  - answer: a
`))
	require.ErrorContains(t, err, "question.type is required")
}

func TestRunNumberedMatchingKeys(t *testing.T) {
	cases, err := parseCases([]byte(`
cases:
  - name: numbered
    question:
      type: matching
      correct_answer: {1: A, 2: B}
    answer: {1: A, 2: B}
`))
	require.NoError(t, err)
	require.Len(t, cases, 1)

	out := cases[0].run()
	require.Empty(t, out.Error)
	require.Equal(t, evaluator.VerdictCorrect, out.Result.Verdict)
}

func TestRunReportsMismatch(t *testing.T) {
	points := 1.0
	c := fixtureCase{
		Name:     "wrong expectation",
		Question: fixtureQuestion{Type: "ordering", CorrectAnswer: []any{"b", "a"}},
		Answer:   []any{"a", "b"},
		Expect:   &fixtureExpect{Verdict: "correct", Points: &points},
	}

	out := c.run()
	require.Equal(t, evaluator.VerdictIncorrect, out.Result.Verdict)
	require.Contains(t, out.Failed, "want correct")
}

func TestRunUnsupportedType(t *testing.T) {
	c := fixtureCase{Name: "unknown", Question: fixtureQuestion{Type: "crossword"}, Answer: "x"}

	out := c.run()
	require.Equal(t, evaluator.VerdictPendingReview, out.Result.Verdict)
	require.NotEmpty(t, out.Error)
	require.Empty(t, out.Failed)
}

func TestReportJSON(t *testing.T) {
	cases := []fixtureCase{{
		Name:     "fill",
		Question: fixtureQuestion{Type: "fill_blank", CorrectAnswer: "river"},
		Answer:   "River",
	}}

	var out bytes.Buffer
	require.Zero(t, report(&out, cases, true))
	require.Contains(t, out.String(), `"verdict":"correct"`)
}
