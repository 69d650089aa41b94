package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/lingua-backend/internal/evaluator"
)

func strPtr(s string) *string { return &s }

func TestSaveAnswerRequestPayload(t *testing.T) {
	tests := []struct {
		name    string
		req     SaveAnswerRequest
		want    string
		wantErr error
	}{
		{name: "student answer", req: SaveAnswerRequest{StudentAnswer: strPtr("Paris")}, want: `"Paris"`},
		{name: "text answer", req: SaveAnswerRequest{TextAnswer: strPtr("cat")}, want: `"cat"`},
		{name: "selected option", req: SaveAnswerRequest{SelectedOptionID: json.RawMessage(`"b"`)}, want: `"b"`},
		{name: "answer data", req: SaveAnswerRequest{AnswerData: json.RawMessage(`{"1":"A"}`)}, want: `{"1":"A"}`},
		{name: "explicit null ignored", req: SaveAnswerRequest{AnswerData: json.RawMessage(`null`), TextAnswer: strPtr("x")}, want: `"x"`},
		{name: "none", req: SaveAnswerRequest{}, wantErr: ErrNoAnswer},
		{name: "two", req: SaveAnswerRequest{StudentAnswer: strPtr("a"), AnswerData: json.RawMessage(`["a"]`)}, wantErr: ErrAmbiguousAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Payload()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestAddQuestionRequestAliases(t *testing.T) {
	req := AddQuestionRequest{
		Modality:       "listening",
		QuestionText:   "Which city?",
		QuestionType:   " Fill_Blank ",
		CorrectAnswers: json.RawMessage(`["Paris"]`),
		PointsValue:    3,
	}
	taskID := uuid.New()

	q := req.ToQuestion(taskID)
	require.Equal(t, taskID, q.TaskID)
	require.Equal(t, "fill_blank", q.QuestionType)
	require.JSONEq(t, `["Paris"]`, string(q.CorrectAnswer))
	require.JSONEq(t, `[]`, string(q.Options))
	require.Equal(t, 3.0, q.Points)

	req.PointsValue = 0
	require.Equal(t, 1.0, req.ToQuestion(taskID).Points)
}

func TestAuthoredQuestionAwardsItsStoredPoints(t *testing.T) {
	taskID := uuid.New()
	for _, pts := range []float64{0, 0.5, 4} {
		req := AddQuestionRequest{
			Modality:      "reading",
			QuestionText:  "Which city?",
			QuestionType:  "fill_blank",
			CorrectAnswer: json.RawMessage(`"Paris"`),
			Points:        pts,
		}
		q := req.ToQuestion(taskID)
		require.Positive(t, q.Points)

		a := &Answer{AnswerData: json.RawMessage(`"paris"`)}
		_, err := a.Grade(&q)
		require.NoError(t, err)
		require.Equal(t, q.Points, a.PointsEarned)
	}
}

func TestAnswerGrade(t *testing.T) {
	q := &Question{
		ID:            uuid.New(),
		QuestionType:  "fill_blank",
		CorrectAnswer: json.RawMessage(`["cat","kitten"]`),
		Points:        2,
	}

	a := &Answer{AnswerData: json.RawMessage(`"Cat"`)}
	_, err := a.Grade(q)
	require.NoError(t, err)
	require.NotNil(t, a.IsCorrect)
	require.True(t, *a.IsCorrect)
	require.Equal(t, 2.0, a.PointsEarned)
	require.Nil(t, a.Explanation)
	require.False(t, a.KeepGrade)

	a.AnswerData = json.RawMessage(`"dog"`)
	_, err = a.Grade(q)
	require.NoError(t, err)
	require.False(t, *a.IsCorrect)
	require.Zero(t, a.PointsEarned)
	require.NotNil(t, a.Explanation)
}

func TestAnswerGradeManualKeepsGrade(t *testing.T) {
	q := &Question{ID: uuid.New(), QuestionType: "audio_response", Points: 5}
	yes := true
	a := &Answer{AnswerData: json.RawMessage(`"clip.webm"`), IsCorrect: &yes, PointsEarned: 4}

	_, err := a.Grade(q)
	require.NoError(t, err)
	require.True(t, *a.IsCorrect)
	require.Equal(t, 4.0, a.PointsEarned)
	require.True(t, a.KeepGrade)

	unknown := &Question{ID: uuid.New(), QuestionType: "crossword"}
	b := &Answer{AnswerData: json.RawMessage(`"x"`)}
	_, err = b.Grade(unknown)
	require.ErrorIs(t, err, evaluator.ErrUnsupportedType)
	require.Nil(t, b.IsCorrect)
	require.True(t, b.KeepGrade)
}

func TestAnswerViewCopiesVerdict(t *testing.T) {
	no := false
	a := Answer{ID: uuid.New(), QuestionID: uuid.New(), IsCorrect: &no, AnswerData: json.RawMessage(`"x"`)}

	var v AnswerView
	require.NoError(t, copier.Copy(&v, &a))
	require.Equal(t, a.ID, v.ID)
	require.Equal(t, "incorrect", v.Verdict)
	require.Equal(t, &no, v.IsCorrect)

	var pending AnswerView
	require.NoError(t, copier.Copy(&pending, &Answer{}))
	require.Equal(t, "pending_review", pending.Verdict)
}
