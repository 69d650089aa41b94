package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedType is returned when a question_type has no registered family.
// The accompanying Result is the manual-review result.
var ErrUnsupportedType = errors.New("unsupported question type")

// QuestionType is the raw tag stored on a question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeSingleCorrect  QuestionType = "single_correct"

	TypeMultipleAnswer  QuestionType = "multiple_answer"
	TypeMultipleCorrect QuestionType = "multiple_correct"

	TypeTrueFalseNotGiven QuestionType = "true_false_not_given"
	TypeYesNoNotGiven     QuestionType = "yes_no_not_given"

	TypeFillBlank          QuestionType = "fill_blank"
	TypeShortAnswer        QuestionType = "short_answer"
	TypeSentenceCompletion QuestionType = "sentence_completion"
	TypeSummaryCompletion  QuestionType = "summary_completion"
	TypeNoteCompletion     QuestionType = "note_completion"
	TypeGapFill            QuestionType = "gap_fill"

	TypeMatching               QuestionType = "matching"
	TypeMatchHeadings          QuestionType = "match_headings"
	TypeMatchingHeading        QuestionType = "matching_heading"
	TypeMatchingInformation    QuestionType = "matching_information"
	TypeMatchingFeatures       QuestionType = "matching_features"
	TypeMatchingSentenceEnding QuestionType = "matching_sentence_ending"

	TypeDragDrop QuestionType = "drag_drop"
	TypeOrdering QuestionType = "ordering"

	TypeTableCompletion QuestionType = "table_completion"

	TypeHighlightText QuestionType = "highlight_text"

	TypeAudioResponse    QuestionType = "audio_response"
	TypeEssay            QuestionType = "essay"
	TypeWritingTask      QuestionType = "writing_task"
	TypeSpeakingResponse QuestionType = "speaking_response"
)

// Family selects the comparison rule for a group of question types.
type Family int

const (
	FamilyManual Family = iota
	FamilySingleChoice
	FamilyMultiSelect
	FamilyTrueFalseNotGiven
	FamilyTextCompletion
	FamilyMatching
	FamilyOrdering
	FamilyTableCompletion
	FamilyHighlight
)

var familyNames = map[Family]string{
	FamilyManual:            "manual",
	FamilySingleChoice:      "single_choice",
	FamilyMultiSelect:       "multi_select",
	FamilyTrueFalseNotGiven: "true_false_not_given",
	FamilyTextCompletion:    "text_completion",
	FamilyMatching:          "matching",
	FamilyOrdering:          "ordering",
	FamilyTableCompletion:   "table_completion",
	FamilyHighlight:         "highlight",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// Automatic reports whether answers of this family are scored without a reviewer.
func (f Family) Automatic() bool {
	return f != FamilyManual
}

var registry = map[QuestionType]Family{
	TypeMultipleChoice: FamilySingleChoice,
	TypeTrueFalse:      FamilySingleChoice,
	TypeSingleCorrect:  FamilySingleChoice,

	TypeMultipleAnswer:  FamilyMultiSelect,
	TypeMultipleCorrect: FamilyMultiSelect,

	TypeTrueFalseNotGiven: FamilyTrueFalseNotGiven,
	TypeYesNoNotGiven:     FamilyTrueFalseNotGiven,

	TypeFillBlank:          FamilyTextCompletion,
	TypeShortAnswer:        FamilyTextCompletion,
	TypeSentenceCompletion: FamilyTextCompletion,
	TypeSummaryCompletion:  FamilyTextCompletion,
	TypeNoteCompletion:     FamilyTextCompletion,
	TypeGapFill:            FamilyTextCompletion,

	TypeMatching:               FamilyMatching,
	TypeMatchHeadings:          FamilyMatching,
	TypeMatchingHeading:        FamilyMatching,
	TypeMatchingInformation:    FamilyMatching,
	TypeMatchingFeatures:       FamilyMatching,
	TypeMatchingSentenceEnding: FamilyMatching,

	TypeDragDrop: FamilyOrdering,
	TypeOrdering: FamilyOrdering,

	TypeTableCompletion: FamilyTableCompletion,

	TypeHighlightText: FamilyHighlight,

	TypeAudioResponse:    FamilyManual,
	TypeEssay:            FamilyManual,
	TypeWritingTask:      FamilyManual,
	TypeSpeakingResponse: FamilyManual,
}

// Canonical lower-cases and trims a raw type tag.
func (t QuestionType) Canonical() QuestionType {
	return QuestionType(strings.ToLower(strings.TrimSpace(string(t))))
}

// Lookup returns the family registered for t.
func Lookup(t QuestionType) (Family, bool) {
	f, ok := registry[t.Canonical()]
	return f, ok
}

// TypeInfo describes one supported question type.
type TypeInfo struct {
	Type      QuestionType `json:"question_type"`
	Family    string       `json:"family"`
	Automatic bool         `json:"automatic"`
}

// SupportedTypes lists every registered question type, sorted by name.
func SupportedTypes() []TypeInfo {
	out := make([]TypeInfo, 0, len(registry))
	for t, f := range registry {
		out = append(out, TypeInfo{Type: t, Family: f.String(), Automatic: f.Automatic()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// ─── Verdict ────────────────────────────────────────────────────────

// Verdict is the tri-state outcome of an evaluation.
type Verdict int8

const (
	VerdictPendingReview Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return "pending_review"
	}
}

// IsCorrect maps the verdict onto the nullable is_correct column.
func (v Verdict) IsCorrect() *bool {
	switch v {
	case VerdictCorrect:
		t := true
		return &t
	case VerdictIncorrect:
		f := false
		return &f
	default:
		return nil
	}
}

// VerdictFromBool is the inverse of IsCorrect.
func VerdictFromBool(b *bool) Verdict {
	switch {
	case b == nil:
		return VerdictPendingReview
	case *b:
		return VerdictCorrect
	default:
		return VerdictIncorrect
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "correct":
		*v = VerdictCorrect
	case "incorrect":
		*v = VerdictIncorrect
	case "", "pending_review", "pending":
		*v = VerdictPendingReview
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// ─── Records ────────────────────────────────────────────────────────

// Question is the read-only view of a question needed for evaluation.
type Question struct {
	ID            string          `json:"id"`
	Type          QuestionType    `json:"question_type"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
	Points        float64         `json:"points"`
}

// PointValue is the weight awarded for a correct answer. Unset or
// non-positive points count as 1.
func (q Question) PointValue() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Answer carries the submitted payload and any verdict already recorded on it.
type Answer struct {
	ID           string          `json:"id,omitempty"`
	Submitted    json.RawMessage `json:"answer"`
	Verdict      Verdict         `json:"verdict"`
	PointsEarned float64         `json:"points_earned"`
	Explanation  string          `json:"explanation,omitempty"`
}

// Result is what callers persist back onto the answer.
type Result struct {
	Verdict      Verdict `json:"verdict"`
	IsCorrect    *bool   `json:"is_correct"`
	PointsEarned float64 `json:"points_earned"`
	Explanation  string  `json:"explanation,omitempty"`
}
