package evaluator

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
)

// Payload decoders. Every decoder reports ok=false instead of failing, so a
// shape mismatch degrades to an incorrect answer.

func isBlank(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	switch string(t) {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}

// scalarText renders a JSON string, number or bool as text. Numbers are
// canonicalised so 1, 1.0 and "1" compare equal as ids.
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return canonicalNumber(t.String()), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// canonicalNumber keeps integer literals exact at any size. Other numbers go
// through float64, so 1.0 becomes 1; values out of float range keep their
// literal text.
func canonicalNumber(lit string) string {
	if i, ok := new(big.Int).SetString(lit, 10); ok {
		return i.String()
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func decodeAny(raw json.RawMessage) (any, bool) {
	if isBlank(raw) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func decodeScalar(raw json.RawMessage) (string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return "", false
	}
	s, ok := scalarText(v)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func listOf(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := scalarText(e)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func decodeList(raw json.RawMessage) ([]string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return nil, false
	}
	return listOf(v)
}

// decodeOneOrMany accepts either a scalar or a list of scalars.
func decodeOneOrMany(raw json.RawMessage) ([]string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return nil, false
	}
	if s, ok := scalarText(v); ok {
		return []string{s}, true
	}
	return listOf(v)
}

func decodeScalarMap(raw json.RawMessage) (map[string]string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(obj))
	for k, e := range obj {
		s, ok := scalarText(e)
		if !ok {
			return nil, false
		}
		out[strings.TrimSpace(k)] = s
	}
	return out, true
}

// decodeCellMap reads a table key: cell -> one acceptable string or a list.
func decodeCellMap(raw json.RawMessage) (map[string][]string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string][]string, len(obj))
	for k, e := range obj {
		if s, ok := scalarText(e); ok {
			out[strings.TrimSpace(k)] = []string{s}
			continue
		}
		list, ok := listOf(e)
		if !ok {
			return nil, false
		}
		out[strings.TrimSpace(k)] = list
	}
	return out, true
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

type option struct {
	ID        any  `json:"id"`
	IsCorrect bool `json:"is_correct"`
}

// flaggedOptions returns the ids of options marked is_correct.
func flaggedOptions(raw json.RawMessage) []string {
	if isBlank(raw) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var opts []option
	if err := dec.Decode(&opts); err != nil {
		return nil
	}
	var ids []string
	for _, o := range opts {
		if !o.IsCorrect {
			continue
		}
		if s, ok := scalarText(o.ID); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids
}

// correctOptionIDs resolves the key for choice questions: flagged options
// win, otherwise the correct_answer field is read as one id or a list of ids.
func correctOptionIDs(q Question) []string {
	if ids := flaggedOptions(q.Options); len(ids) > 0 {
		return ids
	}
	ids, _ := decodeOneOrMany(q.CorrectAnswer)
	return nonEmpty(ids)
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
