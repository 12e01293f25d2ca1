package history

import "github.com/masmgr/stemhistory/internal/store"

// Merge returns a new store in which entity's records are the union of the
// existing records and records, keyed by revision and sorted ascending.
// Records whose revision or commit is already present are dropped, including
// repeats within records. Other entities are copied unchanged. The second
// result is the number of records actually added.
func Merge(s store.Store, entity string, records []store.Record) (store.Store, int) {
	out := make(store.Store, len(s)+1)
	for name, recs := range s {
		if name == entity {
			continue
		}
		out[name] = append([]store.Record(nil), recs...)
	}

	existing, present := s[entity]
	seen := make(map[int]struct{}, len(existing)+len(records))
	commits := make(map[string]struct{})
	merged := make([]store.Record, 0, len(existing)+len(records))
	keep := func(r store.Record) bool {
		if _, dup := seen[r.Revision]; dup {
			return false
		}
		if r.Commit != "" {
			if _, dup := commits[r.Commit]; dup {
				return false
			}
			commits[r.Commit] = struct{}{}
		}
		seen[r.Revision] = struct{}{}
		merged = append(merged, r)
		return true
	}

	for _, r := range existing {
		keep(r)
	}
	added := 0
	for _, r := range records {
		if keep(r) {
			added++
		}
	}

	if !present && added == 0 {
		return out, 0
	}
	store.SortByRevision(merged)
	out[entity] = merged
	return out, added
}
