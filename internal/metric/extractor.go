// Package metric computes scalar size metrics over resource snapshots.
package metric

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

var (
	// ErrFormatMismatch reports content that cannot be measured in the declared format.
	ErrFormatMismatch = errors.New("content does not match format")
	// ErrUnknownFormat reports a format tag with no registered counter.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrNoRootLexicon reports a lexc file without a Root lexicon.
	ErrNoRootLexicon = fmt.Errorf("%w: no Root lexicon found", ErrFormatMismatch)
)

// Extractor turns snapshot content into a non-negative metric.
type Extractor interface {
	Extract(content []byte, format string) (int, error)
}

// Counter measures content of a single format.
type Counter interface {
	Count(content []byte) (int, error)
}

// Options configures the default counters.
type Options struct {
	LexcUniqueOn UniqueOn
	Logger       *zap.Logger
}

// Registry dispatches to a Counter by format tag.
type Registry struct {
	counters map[string]Counter
}

// NewRegistry creates a registry with the built-in formats:
// lexc, dix/bidix, monodix/metadix/metamonodix and lines.
func NewRegistry(opts Options) (*Registry, error) {
	uniqueOn := opts.LexcUniqueOn
	if uniqueOn == "" {
		uniqueOn = UniqueLemmaContinuation
	}
	if !uniqueOn.Valid() {
		return nil, fmt.Errorf("invalid unique criteria: %s", uniqueOn)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{counters: map[string]Counter{}}
	r.Register("lexc", &LexcCounter{UniqueOn: uniqueOn, Logger: logger.Named("lexc")})
	bidix := DixCounter{Mode: DixBilingual}
	r.Register("dix", bidix)
	r.Register("bidix", bidix)
	monodix := DixCounter{Mode: DixMonolingual}
	r.Register("monodix", monodix)
	r.Register("metadix", monodix)
	r.Register("metamonodix", monodix)
	r.Register("lines", LineCounter{})
	return r, nil
}

// Register adds or replaces the counter for format.
func (r *Registry) Register(format string, c Counter) {
	r.counters[format] = c
}

// Formats returns the registered format tags, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.counters))
	for f := range r.counters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Extract counts content with the counter registered for format.
func (r *Registry) Extract(content []byte, format string) (int, error) {
	c, ok := r.counters[format]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	n, err := c.Count(content)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrFormatMismatch, n)
	}
	return n, nil
}

// Compile-time interface conformance checks.
var (
	_ Extractor = (*Registry)(nil)
	_ Counter   = (*LexcCounter)(nil)
	_ Counter   = DixCounter{}
	_ Counter   = LineCounter{}
)
