// Package history incrementally aggregates a per-revision metric time series
// for a remote resource.
package history

import (
	"github.com/masmgr/stemhistory/internal/store"
	"github.com/masmgr/stemhistory/internal/vcs"
)

// Recorded identifies the revisions already present in a stored series, by
// number and by commit id.
type Recorded struct {
	Numbers map[int]struct{}
	Commits map[string]struct{}
}

// Has reports whether rev is already recorded. A commit id match counts even
// when the number differs.
func (r Recorded) Has(rev vcs.RevisionInfo) bool {
	if _, ok := r.Numbers[rev.Number]; ok {
		return true
	}
	if id := commitID(rev); id != "" {
		_, ok := r.Commits[id]
		return ok
	}
	return false
}

// Resolve returns the revisions of remote that are not recorded, in their
// original order, together with the number of revisions skipped.
func Resolve(remote []vcs.RevisionInfo, recorded Recorded) ([]vcs.RevisionInfo, int) {
	toFetch := make([]vcs.RevisionInfo, 0, len(remote))
	skipped := 0
	for _, rev := range remote {
		if recorded.Has(rev) {
			skipped++
			continue
		}
		toFetch = append(toFetch, rev)
	}
	return toFetch, skipped
}

// RecordedRevisions indexes the revisions already present in records.
func RecordedRevisions(records []store.Record) Recorded {
	recorded := Recorded{
		Numbers: store.RevisionSet(records),
		Commits: make(map[string]struct{}),
	}
	for _, r := range records {
		if r.Commit != "" {
			recorded.Commits[r.Commit] = struct{}{}
		}
	}
	return recorded
}
