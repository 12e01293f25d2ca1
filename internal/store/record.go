package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Record is one measurement of an entity at a revision.
type Record struct {
	Revision  int    `json:"revision"`
	Metric    int    `json:"metric"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Commit    string `json:"commit,omitempty"` // Native commit id, for backends without numeric revisions
}

// UnmarshalJSON accepts the current keys as well as the legacy
// rev/stems/date/sha keys written by earlier tooling.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Revision  *int    `json:"revision"`
		Rev       *int    `json:"rev"`
		Metric    *int    `json:"metric"`
		Stems     *int    `json:"stems"`
		Author    string  `json:"author"`
		Timestamp *string `json:"timestamp"`
		Date      *string `json:"date"`
		Commit    string  `json:"commit"`
		SHA       string  `json:"sha"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rev := firstNonNil(raw.Revision, raw.Rev)
	if rev == nil {
		return errors.New("record without revision")
	}
	metric := firstNonNil(raw.Metric, raw.Stems)
	if metric == nil {
		return fmt.Errorf("record %d without metric", *rev)
	}
	if *rev < 0 || *metric < 0 {
		return fmt.Errorf("record %d has negative values", *rev)
	}

	*r = Record{
		Revision: *rev,
		Metric:   *metric,
		Author:   raw.Author,
		Commit:   raw.Commit,
	}
	if ts := firstNonNil(raw.Timestamp, raw.Date); ts != nil {
		r.Timestamp = *ts
	}
	if r.Commit == "" {
		r.Commit = raw.SHA
	}
	return nil
}

func firstNonNil[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
