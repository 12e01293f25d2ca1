package cmd

import (
	"github.com/masmgr/stemhistory/internal/output"
)

func writeTimelineReport(report *output.TimelineReport, opts output.OutputOptions) error {
	writer := output.NewTimelineReportWriter(opts.Format)
	return writer.Write(report, opts)
}

func writeAuthorReport(report *output.AuthorReport, opts output.OutputOptions) error {
	writer := output.NewAuthorReportWriter(opts.Format)
	return writer.Write(report, opts)
}
