package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "no values", input: nil, expected: nil},
		{name: "only blanks", input: []string{" ", ", ,"}, expected: nil},
		{name: "single", input: []string{"kafka:9092"}, expected: []string{"kafka:9092"}},
		{
			name:     "comma separated with spaces",
			input:    []string{" a:9092 , b:9092,"},
			expected: []string{"a:9092", "b:9092"},
		},
		{
			name:     "repeats across values keep first position",
			input:    []string{"employees.update", "cycles.create,employees.update"},
			expected: []string{"employees.update", "cycles.create"},
		},
		{
			name:     "case is significant",
			input:    []string{"A,a"},
			expected: []string{"A", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input...))
		})
	}
}
