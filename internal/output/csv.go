package output

import (
	"encoding/csv"
	"os"
	"strconv"
)

// CSVTimelineWriter writes timeline reports as CSV, one row per record.
type CSVTimelineWriter struct{}

// Write outputs the timeline report as CSV.
func (w *CSVTimelineWriter) Write(report *TimelineReport, options OutputOptions) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.Write([]string{"Entity", "Revision", "Metric", "Delta", "Author", "Timestamp", "Commit"}); err != nil {
		return err
	}
	for _, series := range report.Series {
		for _, row := range timelineRows(series.Records, options.Top) {
			record := []string{
				series.Entity,
				strconv.Itoa(row.Revision),
				strconv.Itoa(row.Metric),
				strconv.Itoa(row.Delta),
				row.Author,
				row.Timestamp,
				row.Commit,
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVAuthorWriter writes author reports as CSV.
type CSVAuthorWriter struct{}

// Write outputs the author report as CSV.
func (w *CSVAuthorWriter) Write(report *AuthorReport, options OutputOptions) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.Write([]string{"Author", "Revisions", "FirstRevision", "LastRevision"}); err != nil {
		return err
	}
	for _, item := range limitTop(report.Items, options.Top) {
		row := []string{
			item.Author,
			strconv.Itoa(item.Revisions),
			strconv.Itoa(item.FirstRevision),
			strconv.Itoa(item.LastRevision),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return csv.NewWriter(file), file, nil
	}
	return csv.NewWriter(os.Stdout), nil, nil
}
