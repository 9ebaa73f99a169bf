package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble before object",
			input:    "Here is the evaluation:\n{\"score\": 72, \"explanation\": \"solid\"}",
			expected: `{"score": 72, "explanation": "solid"}`,
		},
		{
			name:     "trailing text",
			input:    "{\"isResume\": true}\n\nLet me know if you need more.",
			expected: `{"isResume": true}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"content": "skills {Go} and }more"}`,
			expected: `{"content": "skills {Go} and }more"}`,
		},
		{
			name:     "escaped quotes",
			input:    `Result: {"explanation": "said \"hi\" {"}`,
			expected: `{"explanation": "said \"hi\" {"}`,
		},
		{
			name:     "no object",
			input:    "not json",
			expected: "not json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestStripControlChars(t *testing.T) {
	assert.Equal(t, "line one line two", StripControlChars("line one\r\n\tline two"))
	assert.Equal(t, "a b", StripControlChars("a\x00\x01\x19b"))
	assert.Equal(t, "résumé ✓", StripControlChars("résumé ✓"))
	assert.Equal(t, "", StripControlChars(""))
}
