// Package store holds the persisted measurement time series.
package store

import (
	"fmt"
	"sort"
)

// Store maps entity names to their measurement records.
type Store map[string][]Record

// Records returns a copy of the entity's records (nil if absent).
func (s Store) Records(entity string) []Record {
	records, ok := s[entity]
	if !ok {
		return nil
	}
	return append([]Record(nil), records...)
}

// Clone returns a deep copy of the store.
func (s Store) Clone() Store {
	out := make(Store, len(s))
	for name, records := range s {
		out[name] = append([]Record(nil), records...)
	}
	return out
}

// Entities returns the entity names, sorted.
func (s Store) Entities() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RevisionSet returns the set of revisions present in records.
func RevisionSet(records []Record) map[int]struct{} {
	set := make(map[int]struct{}, len(records))
	for _, r := range records {
		set[r.Revision] = struct{}{}
	}
	return set
}

// SortByRevision orders records by ascending revision in place.
func SortByRevision(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Revision < records[j].Revision
	})
}

// Layout is the on-disk shape of a store file.
type Layout string

const (
	// LayoutMap is {"entity": [records...]}.
	LayoutMap Layout = "map"
	// LayoutList is [{"name": "entity", "history": [records...]}].
	LayoutList Layout = "list"
	// LayoutSingle is a bare record list for single-entity deployments.
	LayoutSingle Layout = "single"
)

// ParseLayout validates a layout name. Empty means LayoutMap.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutMap:
		return LayoutMap, nil
	case LayoutList, LayoutSingle:
		return Layout(s), nil
	}
	return "", fmt.Errorf("invalid store layout %q (expected map, list or single)", s)
}
