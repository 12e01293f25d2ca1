package output

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
)

// ConsoleTimelineWriter writes timeline reports to the console.
type ConsoleTimelineWriter struct{}

// Write outputs the timeline report to the console.
func (w *ConsoleTimelineWriter) Write(report *TimelineReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, color.GreenString("Stem History"))
	fmt.Fprintf(out, "Store: %s\n", report.StorePath)
	fmt.Fprintf(out, "Entities: %d, Records: %d\n", len(report.Series), countRecords(report.Series))

	if len(report.Series) == 0 {
		fmt.Fprintln(out, "\nNo recorded history.")
		return nil
	}

	for _, series := range report.Series {
		fmt.Fprintf(out, "\n%s (%d revisions, latest %d)\n",
			color.YellowString(series.Entity), len(series.Records), latestMetric(series.Records))

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Revision\tMetric\tDelta\tAuthor\tTimestamp\tCommit")
		for _, row := range timelineRows(series.Records, options.Top) {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
				row.Revision,
				row.Metric,
				getDeltaColor(row.Delta)("%+d", row.Delta),
				row.Author,
				row.Timestamp,
				shortCommit(row.Commit),
			)
		}
		tw.Flush()
	}

	return nil
}

// ConsoleAuthorWriter writes author reports to the console.
type ConsoleAuthorWriter struct{}

// Write outputs the author report to the console.
func (w *ConsoleAuthorWriter) Write(report *AuthorReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, color.GreenString("Contributors"))
	fmt.Fprintf(out, "Resource: %s\n", report.Resource)
	fmt.Fprintf(out, "Revisions: %d, Authors: %d\n\n", report.TotalRevisions, len(report.Items))

	if len(report.Items) == 0 {
		fmt.Fprintln(out, "No revisions found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAuthor\tRevisions\tFirst\tLast")
	for i, item := range limitTop(report.Items, options.Top) {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n",
			i+1,
			item.Author,
			item.Revisions,
			item.FirstRevision,
			item.LastRevision,
		)
	}
	tw.Flush()

	return nil
}

func getDeltaColor(delta int) func(string, ...interface{}) string {
	switch {
	case delta > 0:
		return color.GreenString
	case delta < 0:
		return color.RedString
	default:
		return fmt.Sprintf
	}
}
