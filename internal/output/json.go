package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONTimelineWriter writes timeline reports as JSON.
type JSONTimelineWriter struct{}

// JSONTimelineReport is the JSON output structure for a timeline.
type JSONTimelineReport struct {
	StorePath    string             `json:"store"`
	GeneratedAt  string             `json:"generatedAt"`
	TotalRecords int                `json:"totalRecords"`
	Series       []JSONTimelineItem `json:"series"`
}

// JSONTimelineItem is the JSON output structure for one entity's series.
type JSONTimelineItem struct {
	Entity  string              `json:"entity"`
	Latest  int                 `json:"latest"`
	Records []JSONTimelineEntry `json:"records"`
}

// JSONTimelineEntry is one record with its delta.
type JSONTimelineEntry struct {
	Revision  int    `json:"revision"`
	Metric    int    `json:"metric"`
	Delta     int    `json:"delta"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Commit    string `json:"commit,omitempty"`
}

// Write outputs the timeline report as JSON.
func (w *JSONTimelineWriter) Write(report *TimelineReport, options OutputOptions) error {
	series := make([]JSONTimelineItem, len(report.Series))
	for i, s := range report.Series {
		rows := timelineRows(s.Records, options.Top)
		entries := make([]JSONTimelineEntry, len(rows))
		for j, row := range rows {
			entries[j] = JSONTimelineEntry{
				Revision:  row.Revision,
				Metric:    row.Metric,
				Delta:     row.Delta,
				Author:    row.Author,
				Timestamp: row.Timestamp,
				Commit:    row.Commit,
			}
		}
		series[i] = JSONTimelineItem{
			Entity:  s.Entity,
			Latest:  latestMetric(s.Records),
			Records: entries,
		}
	}

	return writeJSON(JSONTimelineReport{
		StorePath:    report.StorePath,
		GeneratedAt:  report.GeneratedAt.Format(time.RFC3339),
		TotalRecords: countRecords(report.Series),
		Series:       series,
	}, options.OutputPath)
}

// JSONAuthorWriter writes author reports as JSON.
type JSONAuthorWriter struct{}

// JSONAuthorReport is the JSON output structure for an author tally.
type JSONAuthorReport struct {
	Resource       string           `json:"resource"`
	GeneratedAt    string           `json:"generatedAt"`
	TotalRevisions int              `json:"totalRevisions"`
	Items          []JSONAuthorItem `json:"items"`
}

// JSONAuthorItem is one contributor. The user/value pair matches the
// shape consumed by the contributor charts.
type JSONAuthorItem struct {
	User          string `json:"user"`
	Value         int    `json:"value"`
	FirstRevision int    `json:"firstRevision"`
	LastRevision  int    `json:"lastRevision"`
}

// Write outputs the author report as JSON.
func (w *JSONAuthorWriter) Write(report *AuthorReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)
	jsonItems := make([]JSONAuthorItem, len(items))
	for i, item := range items {
		jsonItems[i] = JSONAuthorItem{
			User:          item.Author,
			Value:         item.Revisions,
			FirstRevision: item.FirstRevision,
			LastRevision:  item.LastRevision,
		}
	}

	return writeJSON(JSONAuthorReport{
		Resource:       report.Resource,
		GeneratedAt:    report.GeneratedAt.Format(time.RFC3339),
		TotalRevisions: report.TotalRevisions,
		Items:          jsonItems,
	}, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	encoder := json.NewEncoder(os.Stdout)
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		encoder = json.NewEncoder(file)
	}

	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
