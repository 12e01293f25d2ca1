package history

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/masmgr/stemhistory/internal/metric"
	"github.com/masmgr/stemhistory/internal/store"
	"github.com/masmgr/stemhistory/internal/vcs"
)

// atoiExtractor reads the snapshot content as the metric value.
type atoiExtractor struct{}

func (atoiExtractor) Extract(content []byte, _ string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", metric.ErrFormatMismatch, err)
	}
	return n, nil
}

// memStoreFile is an in-memory StoreFile that counts saves.
type memStoreFile struct {
	data    store.Store
	loadErr error
	saveErr error
	saves   int
}

func (m *memStoreFile) Load() (store.Store, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data.Clone(), nil
}

func (m *memStoreFile) Save(s store.Store) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data = s.Clone()
	return nil
}

func (m *memStoreFile) Path() string {
	return "mem://stems.json"
}

var testPrimary = vcs.Locator{
	Root:     "https://svn.example.org/svn",
	Location: "languages",
	Entity:   "foo",
	Format:   "lexc",
}

func revision(n int) vcs.RevisionInfo {
	return vcs.RevisionInfo{
		Number:    n,
		ID:        strconv.Itoa(n),
		Author:    fmt.Sprintf("user%d", n),
		Timestamp: fmt.Sprintf("2020-01-%02dT00:00:00Z", n%28+1),
	}
}

func revisions(numbers ...int) []vcs.RevisionInfo {
	out := make([]vcs.RevisionInfo, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, revision(n))
	}
	return out
}

func record(n, value int) store.Record {
	rev := revision(n)
	return store.Record{Revision: n, Metric: value, Author: rev.Author, Timestamp: rev.Timestamp}
}

func revisionNumbers(records []store.Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.Revision)
	}
	return out
}
