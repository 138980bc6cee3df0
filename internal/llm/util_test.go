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
			input:    "```json\n{\"skills\": {\"Go\": true}}\n```",
			expected: `{"skills": {"Go": true}}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"matched\": true}\n```",
			expected: `{"matched": true}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"matched\": false}\n```",
			expected: `{"matched": false}`,
		},
		{
			name:     "plain JSON",
			input:    `{"seniority": "senior"}`,
			expected: `{"seniority": "senior"}`,
		},
		{
			name:     "preamble before object",
			input:    "Here is the extraction:\n{\"tools\": [\"Greenhouse\"]}",
			expected: `{"tools": ["Greenhouse"]}`,
		},
		{
			name:     "preamble before array",
			input:    "Items:\n[\"a\", \"b\"]",
			expected: `["a", "b"]`,
		},
		{
			name:     "trailing commentary",
			input:    "{\"matched\": true}\n\nLet me know if you need anything else!",
			expected: `{"matched": true}`,
		},
		{
			name:     "escaped quotes and braces in strings",
			input:    "Result: {\"rationale\": \"He said \\\"{hello}\\\"\"}",
			expected: `{"rationale": "He said \"{hello}\""}`,
		},
		{
			name:     "unbalanced object returned from first brace",
			input:    "oops {\"matched\": tru",
			expected: `{"matched": tru`,
		},
		{
			name:     "no json at all",
			input:    "I cannot help with that.",
			expected: "I cannot help with that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple object", input: `{"key": "value"}`, expected: `{"key": "value"}`},
		{name: "object with array", input: `{"items": [1, 2, 3]}`, expected: `{"items": [1, 2, 3]}`},
		{name: "trailing text", input: `{"key": "value"} and more`, expected: `{"key": "value"}`},
		{name: "string with braces inside", input: `{"template": "Hello {name}!"}`, expected: `{"template": "Hello {name}!"}`},
		{name: "empty input", input: "", expected: ""},
		{name: "not starting with brace", input: "not json", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple array", input: `["a", "b"]`, expected: `["a", "b"]`},
		{name: "nested arrays", input: `[[1, 2], [3, 4]]`, expected: `[[1, 2], [3, 4]]`},
		{name: "array of objects", input: `[{"id": 1}, {"id": 2}] extra`, expected: `[{"id": 1}, {"id": 2}]`},
		{name: "not starting with bracket", input: "not array", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.input))
		})
	}
}
