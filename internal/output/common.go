package output

import (
	"io"
	"os"
	"strings"

	"github.com/masmgr/stemhistory/internal/store"
)

const reportDateTimeLayout = "2006-01-02T15:04:05"

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func limitLast[T any](items []T, last int) []T {
	if last <= 0 || last >= len(items) {
		return items
	}
	return items[len(items)-last:]
}

// timelineRow is a record with its change from the previous revision.
type timelineRow struct {
	store.Record
	Delta int
}

// timelineRows computes deltas over the full series, then keeps the latest top rows.
func timelineRows(records []store.Record, top int) []timelineRow {
	rows := make([]timelineRow, len(records))
	for i, r := range records {
		rows[i] = timelineRow{Record: r}
		if i > 0 {
			rows[i].Delta = r.Metric - records[i-1].Metric
		}
	}
	return limitLast(rows, top)
}

func latestMetric(records []store.Record) int {
	if len(records) == 0 {
		return 0
	}
	return records[len(records)-1].Metric
}

func countRecords(series []Series) int {
	total := 0
	for _, s := range series {
		total += len(s.Records)
	}
	return total
}

func shortCommit(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}
