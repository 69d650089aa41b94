package evaluator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// comparator decides correctness for one family. When the answer is not
// correct it returns a short explanation.
type comparator func(q Question, submitted json.RawMessage) (bool, string)

const (
	msgNoKey       = "question has no correct answer"
	msgEmpty       = "answer is empty"
	msgWrongShape  = "answer has the wrong shape for this question type"
	msgNotMatching = "answer does not match"
)

var comparators = map[Family]comparator{
	FamilySingleChoice:      compareSingleChoice,
	FamilyMultiSelect:       compareMultiSelect,
	FamilyTrueFalseNotGiven: compareTrueFalseNotGiven,
	FamilyTextCompletion:    compareText,
	FamilyMatching:          compareMatching,
	FamilyOrdering:          compareOrdering,
	FamilyTableCompletion:   compareTable,
	FamilyHighlight:         compareHighlight,
}

func compareSingleChoice(q Question, submitted json.RawMessage) (bool, string) {
	key := correctOptionIDs(q)
	switch {
	case len(key) == 0:
		return false, msgNoKey
	case len(key) > 1:
		return false, fmt.Sprintf("question has %d correct options, expected one", len(key))
	}
	if isBlank(submitted) {
		return false, msgEmpty
	}
	selected, ok := decodeScalar(submitted)
	if !ok {
		return false, msgWrongShape
	}
	if normalizeID(selected) != normalizeID(key[0]) {
		return false, "selected option is not the correct option"
	}
	return true, ""
}

func compareMultiSelect(q Question, submitted json.RawMessage) (bool, string) {
	key := idSet(correctOptionIDs(q))
	if len(key) == 0 {
		return false, msgNoKey
	}
	if isBlank(submitted) {
		return false, msgEmpty
	}
	list, ok := decodeList(submitted)
	if !ok {
		return false, msgWrongShape
	}
	selected := idSet(list)
	for id := range selected {
		if _, ok := key[id]; !ok {
			return false, "selection includes an incorrect option"
		}
	}
	if len(selected) != len(key) {
		return false, fmt.Sprintf("selected %d of %d correct options", len(selected), len(key))
	}
	return true, ""
}

var labelVocabulary = map[QuestionType][]string{
	TypeTrueFalseNotGiven: {"true", "false", "not given"},
	TypeYesNoNotGiven:     {"yes", "no", "not given"},
}

func compareTrueFalseNotGiven(q Question, submitted json.RawMessage) (bool, string) {
	vocab := labelVocabulary[q.Type.Canonical()]
	inVocab := func(s string) bool {
		for _, v := range vocab {
			if v == s {
				return true
			}
		}
		return false
	}

	keyRaw, ok := decodeScalar(q.CorrectAnswer)
	if !ok {
		return false, msgNoKey
	}
	key := normalizeLabel(keyRaw)
	if !inVocab(key) {
		return false, fmt.Sprintf("correct answer %q is not a valid label", keyRaw)
	}

	if isBlank(submitted) {
		return false, msgEmpty
	}
	raw, ok := decodeScalar(submitted)
	if !ok {
		return false, msgWrongShape
	}
	got := normalizeLabel(raw)
	if !inVocab(got) {
		return false, "answer must be one of " + strings.Join(vocab, ", ")
	}
	if got != key {
		return false, msgNotMatching
	}
	return true, ""
}

func compareText(q Question, submitted json.RawMessage) (bool, string) {
	accepted, _ := decodeOneOrMany(q.CorrectAnswer)
	return matchText(accepted, submitted)
}

// matchText is shared by text completion and single-cell tables.
func matchText(accepted []string, submitted json.RawMessage) (bool, string) {
	normalized := make([]string, 0, len(accepted))
	for _, a := range accepted {
		if n := Normalize(a); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return false, msgNoKey
	}
	raw, ok := decodeScalar(submitted)
	if !ok {
		if isBlank(submitted) {
			return false, msgEmpty
		}
		return false, msgWrongShape
	}
	got := Normalize(raw)
	if got == "" {
		return false, msgEmpty
	}
	for _, n := range normalized {
		if got == n {
			return true, ""
		}
	}
	return false, msgNotMatching
}

func compareMatching(q Question, submitted json.RawMessage) (bool, string) {
	key, ok := decodeScalarMap(q.CorrectAnswer)
	if !ok || len(key) == 0 {
		return false, msgNoKey
	}
	if isBlank(submitted) {
		return false, msgEmpty
	}
	got, ok := decodeScalarMap(submitted)
	if !ok {
		return false, msgWrongShape
	}
	for _, k := range sortedKeys(key) {
		v, present := got[k]
		if !present || v == "" {
			return false, "missing match for " + k
		}
		if v != key[k] {
			return false, "incorrect match for " + k
		}
	}
	for _, k := range sortedKeys(got) {
		if _, expected := key[k]; !expected {
			return false, "unexpected match for " + k
		}
	}
	return true, ""
}

func compareOrdering(q Question, submitted json.RawMessage) (bool, string) {
	key, ok := decodeList(q.CorrectAnswer)
	if !ok || len(key) == 0 {
		return false, msgNoKey
	}
	if isBlank(submitted) {
		return false, msgEmpty
	}
	got, ok := decodeList(submitted)
	if !ok {
		return false, msgWrongShape
	}
	if len(got) != len(key) {
		return false, fmt.Sprintf("expected %d items, got %d", len(key), len(got))
	}
	for i := range key {
		if normalizeID(got[i]) != normalizeID(key[i]) {
			return false, fmt.Sprintf("item %d is out of order", i+1)
		}
	}
	return true, ""
}

func compareTable(q Question, submitted json.RawMessage) (bool, string) {
	if !isObject(q.CorrectAnswer) {
		// single-cell table keyed like a text completion
		return compareText(q, submitted)
	}
	cells, ok := decodeCellMap(q.CorrectAnswer)
	if !ok || len(cells) == 0 {
		return false, msgNoKey
	}
	if isBlank(submitted) {
		return false, msgEmpty
	}
	got, ok := decodeScalarMap(submitted)
	if !ok {
		return false, msgWrongShape
	}
	for _, cell := range sortedKeys(cells) {
		text, err := json.Marshal(got[cell])
		if err != nil {
			return false, msgWrongShape
		}
		if ok, why := matchText(cells[cell], text); !ok {
			return false, fmt.Sprintf("cell %s: %s", cell, why)
		}
	}
	return true, ""
}

func compareHighlight(q Question, submitted json.RawMessage) (bool, string) {
	accepted, _ := decodeOneOrMany(q.CorrectAnswer)
	key := spanSet(accepted)
	if len(key) == 0 {
		return false, msgNoKey
	}
	if isBlank(submitted) {
		return false, msgEmpty
	}
	spans, ok := decodeOneOrMany(submitted)
	if !ok {
		return false, msgWrongShape
	}
	got := spanSet(spans)
	if len(got) == 0 {
		return false, msgEmpty
	}
	for s := range got {
		if _, ok := key[s]; !ok {
			return false, "highlight includes text that should not be selected"
		}
	}
	if len(got) != len(key) {
		return false, fmt.Sprintf("highlighted %d of %d spans", len(got), len(key))
	}
	return true, ""
}

// ─── helpers ────────────────────────────────────────────────────────

func idSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if n := normalizeID(id); n != "" {
			m[n] = struct{}{}
		}
	}
	return m
}

func spanSet(spans []string) map[string]struct{} {
	m := make(map[string]struct{}, len(spans))
	for _, s := range spans {
		if n := Normalize(s); n != "" {
			m[n] = struct{}{}
		}
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
