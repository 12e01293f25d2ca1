package output

import (
	"fmt"
	"time"

	"github.com/masmgr/stemhistory/internal/history"
	"github.com/masmgr/stemhistory/internal/store"
)

// Compile-time interface conformance checks.
// These ensure that all writer types correctly implement their respective interfaces.
var (
	// TimelineReportWriter implementations
	_ TimelineReportWriter = (*ConsoleTimelineWriter)(nil)
	_ TimelineReportWriter = (*JSONTimelineWriter)(nil)
	_ TimelineReportWriter = (*CSVTimelineWriter)(nil)
	_ TimelineReportWriter = (*MarkdownTimelineWriter)(nil)
	_ TimelineReportWriter = (*CITimelineWriter)(nil)

	// AuthorReportWriter implementations
	_ AuthorReportWriter = (*ConsoleAuthorWriter)(nil)
	_ AuthorReportWriter = (*JSONAuthorWriter)(nil)
	_ AuthorReportWriter = (*CSVAuthorWriter)(nil)
	_ AuthorReportWriter = (*MarkdownAuthorWriter)(nil)
	_ AuthorReportWriter = (*CIAuthorWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// ParseFormat validates an output format name. Empty means console; "md"
// and "ndjson" are accepted for markdown and ci.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "":
		return FormatConsole, nil
	case "md":
		return FormatMarkdown, nil
	case "ndjson":
		return FormatCI, nil
	case FormatConsole, FormatJSON, FormatCSV, FormatMarkdown, FormatCI:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("invalid output format: %s (expected console, json, csv, markdown or ci)", s)
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int // Timeline: latest N records per entity. Authors: top N contributors.
	OutputPath string
}

// Series is the stored time series of one entity.
type Series struct {
	Entity  string
	Records []store.Record
}

// TimelineReport holds stored series read back from a store.
type TimelineReport struct {
	StorePath   string
	GeneratedAt time.Time
	Series      []Series
}

// AuthorReport holds the contributor tally of a resource.
type AuthorReport struct {
	Resource       string
	GeneratedAt    time.Time
	TotalRevisions int
	Items          []history.AuthorStats
}

// TimelineReportWriter writes timeline reports.
type TimelineReportWriter interface {
	Write(report *TimelineReport, options OutputOptions) error
}

// AuthorReportWriter writes author reports.
type AuthorReportWriter interface {
	Write(report *AuthorReport, options OutputOptions) error
}

// NewTimelineReportWriter creates a timeline report writer for the specified format.
func NewTimelineReportWriter(format OutputFormat) TimelineReportWriter {
	switch format {
	case FormatJSON:
		return &JSONTimelineWriter{}
	case FormatCSV:
		return &CSVTimelineWriter{}
	case FormatMarkdown:
		return &MarkdownTimelineWriter{}
	case FormatCI:
		return &CITimelineWriter{}
	default:
		return &ConsoleTimelineWriter{}
	}
}

// NewAuthorReportWriter creates an author report writer for the specified format.
func NewAuthorReportWriter(format OutputFormat) AuthorReportWriter {
	switch format {
	case FormatJSON:
		return &JSONAuthorWriter{}
	case FormatCSV:
		return &CSVAuthorWriter{}
	case FormatMarkdown:
		return &MarkdownAuthorWriter{}
	case FormatCI:
		return &CIAuthorWriter{}
	default:
		return &ConsoleAuthorWriter{}
	}
}
