package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trims whitespace",
			input:    []string{"  kafka-1:9092  ", "kafka-2:9092 "},
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"a:9092", "b:9092", "a:9092"},
			expected: []string{"a:9092", "b:9092"},
		},
		{
			name:     "drops empty elements",
			input:    []string{"", "  ", "a:9092"},
			expected: []string{"a:9092"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
