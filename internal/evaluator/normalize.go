package evaluator

import (
	"strings"
	"unicode"
)

// Normalize prepares free text for comparison: lower-case, punctuation and
// symbols removed, whitespace runs collapsed to one space, trimmed.
// Reading and listening answers both go through this function.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsLetter(r), unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// normalizeLabel is the looser form used for true/false/not-given labels,
// where "not_given" and "Not-Given" mean the same thing.
func normalizeLabel(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
