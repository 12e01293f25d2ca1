package metric

import (
	"bytes"
	"fmt"
)

// LineCounter counts lines of a text resource.
type LineCounter struct{}

// Count returns the line count. Binary content (containing NUL bytes) is rejected.
func (LineCounter) Count(content []byte) (int, error) {
	if bytes.IndexByte(content, 0) != -1 {
		return 0, fmt.Errorf("%w: binary content", ErrFormatMismatch)
	}
	return countLines(content), nil
}

// countLines counts the number of lines in content.
// An empty file has 0 lines. A file with no trailing newline still counts its last line.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	count := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		count++
	}
	return count
}
