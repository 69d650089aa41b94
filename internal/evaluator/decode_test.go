package evaluator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3", "3"},
		{"-0", "0"},
		{"1.0", "1"},
		{"1.50", "1.5"},
		{"1e2", "100"},
		{"9007199254740993", "9007199254740993"},
		{"123456789012345678901234567890", "123456789012345678901234567890"},
		{"1e400", "1e400"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, canonicalNumber(tt.in))
		})
	}
}
