package metric

import (
	"errors"
	"testing"
)

func TestCountLines(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{name: "Empty", content: "", expected: 0},
		{name: "Single line with newline", content: "hello\n", expected: 1},
		{name: "Single line without newline", content: "hello", expected: 1},
		{name: "Multiple lines", content: "a\nb\nc\n", expected: 3},
		{name: "Multiple lines no trailing newline", content: "a\nb\nc", expected: 3},
		{name: "Only newlines", content: "\n\n\n", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := countLines([]byte(tt.content))
			if got != tt.expected {
				t.Errorf("countLines(%q) = %d, expected %d", tt.content, got, tt.expected)
			}
		})
	}
}

func TestLineCounter_RejectsBinary(t *testing.T) {
	if _, err := (LineCounter{}).Count([]byte("a\x00b")); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("expected ErrFormatMismatch, got %v", err)
	}
}
