package output

import "fmt"

// MarkdownTimelineWriter writes timeline reports as Markdown.
type MarkdownTimelineWriter struct{}

// Write outputs the timeline report as Markdown.
func (w *MarkdownTimelineWriter) Write(report *TimelineReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Stem History")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Store:** %s\n\n", report.StorePath)
	fmt.Fprintf(out, "**Generated:** %s\n\n", report.GeneratedAt.Format(reportDateTimeLayout))

	if len(report.Series) == 0 {
		fmt.Fprintln(out, "_No recorded history._")
		return nil
	}

	for _, series := range report.Series {
		fmt.Fprintf(out, "## %s\n\n", escapeMarkdown(series.Entity))
		fmt.Fprintf(out, "%d revisions, latest value **%d**.\n\n", len(series.Records), latestMetric(series.Records))
		fmt.Fprintln(out, "| Revision | Metric | Delta | Author | Timestamp |")
		fmt.Fprintln(out, "|----------|--------|-------|--------|-----------|")
		for _, row := range timelineRows(series.Records, options.Top) {
			fmt.Fprintf(out, "| %d | %d | %+d | %s | %s |\n",
				row.Revision, row.Metric, row.Delta, escapeMarkdown(row.Author), row.Timestamp)
		}
		fmt.Fprintln(out)
	}

	return nil
}

// MarkdownAuthorWriter writes author reports as Markdown.
type MarkdownAuthorWriter struct{}

// Write outputs the author report as Markdown.
func (w *MarkdownAuthorWriter) Write(report *AuthorReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Contributors")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Resource:** %s\n\n", report.Resource)
	fmt.Fprintf(out, "**Total Revisions:** %d\n\n", report.TotalRevisions)

	fmt.Fprintln(out, "| # | Author | Revisions | First | Last |")
	fmt.Fprintln(out, "|---|--------|-----------|-------|------|")
	for i, item := range limitTop(report.Items, options.Top) {
		fmt.Fprintf(out, "| %d | %s | %d | %d | %d |\n",
			i+1, escapeMarkdown(item.Author), item.Revisions, item.FirstRevision, item.LastRevision)
	}

	return nil
}
