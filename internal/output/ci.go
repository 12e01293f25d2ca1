package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// CITimelineWriter writes timeline reports as NDJSON (one JSON object per line) for CI pipelines.
type CITimelineWriter struct{}

// CITimelineSummary is the first line of CI timeline output.
type CITimelineSummary struct {
	Type     string `json:"type"`
	Entities int    `json:"entities"`
	Records  int    `json:"records"`
}

// CITimelineEntry represents a single record in CI output.
type CITimelineEntry struct {
	Type     string `json:"type"`
	Entity   string `json:"entity"`
	Revision int    `json:"revision"`
	Metric   int    `json:"metric"`
	Delta    int    `json:"delta"`
	Author   string `json:"author"`
}

// Write outputs the timeline report as NDJSON.
func (w *CITimelineWriter) Write(report *TimelineReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	summary := CITimelineSummary{
		Type:     "summary",
		Entities: len(report.Series),
		Records:  countRecords(report.Series),
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, series := range report.Series {
		for _, row := range timelineRows(series.Records, options.Top) {
			entry := CITimelineEntry{
				Type:     "record",
				Entity:   series.Entity,
				Revision: row.Revision,
				Metric:   row.Metric,
				Delta:    row.Delta,
				Author:   row.Author,
			}
			if err := writeNDJSONLine(out, entry); err != nil {
				return err
			}
		}
	}

	return nil
}

// CIAuthorWriter writes author reports as NDJSON.
type CIAuthorWriter struct{}

// CIAuthorSummary is the first line of CI author output.
type CIAuthorSummary struct {
	Type      string `json:"type"`
	Authors   int    `json:"authors"`
	Revisions int    `json:"revisions"`
}

// CIAuthorEntry represents a single contributor in CI output.
type CIAuthorEntry struct {
	Type  string `json:"type"`
	User  string `json:"user"`
	Value int    `json:"value"`
}

// Write outputs the author report as NDJSON.
func (w *CIAuthorWriter) Write(report *AuthorReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	summary := CIAuthorSummary{
		Type:      "summary",
		Authors:   len(report.Items),
		Revisions: report.TotalRevisions,
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, item := range limitTop(report.Items, options.Top) {
		if err := writeNDJSONLine(out, CIAuthorEntry{Type: "author", User: item.Author, Value: item.Revisions}); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
