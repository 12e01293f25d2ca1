package vcs

import (
	"context"
	"fmt"
	"sync"
)

// MockBackend is a test double for a repository backend.
// It serves predefined history and snapshot content without a real VCS.
type MockBackend struct {
	Revisions []RevisionInfo
	ListErr   error
	Files     []string

	mu        sync.Mutex
	histories map[string]mockHistory
	snapshots map[string][]byte
	fetchErrs map[string]error
	fetched   []string
	released  int
}

// NewMockBackend creates a MockBackend serving the given history.
func NewMockBackend(revisions []RevisionInfo, listErr error) *MockBackend {
	return &MockBackend{
		Revisions: revisions,
		ListErr:   listErr,
		histories: map[string]mockHistory{},
		snapshots: map[string][]byte{},
		fetchErrs: map[string]error{},
	}
}

type mockHistory struct {
	revisions []RevisionInfo
	err       error
}

func mockKey(loc Locator, rev int) string {
	return fmt.Sprintf("%s@%d", loc.Path(), rev)
}

// AddSnapshot registers content for loc at rev.
func (m *MockBackend) AddSnapshot(loc Locator, rev int, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[mockKey(loc, rev)] = []byte(content)
}

// FailFetch makes fetching loc at rev return err.
func (m *MockBackend) FailFetch(loc Locator, rev int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErrs[mockKey(loc, rev)] = err
}

// SetHistory makes List return revisions and err for loc instead of the
// shared history.
func (m *MockBackend) SetHistory(loc Locator, revisions []RevisionInfo, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[loc.Path()] = mockHistory{revisions: revisions, err: err}
}

// List returns the history set for loc, or the shared history and error.
func (m *MockBackend) List(_ context.Context, loc Locator) ([]RevisionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histories[loc.Path()]; ok {
		return h.revisions, h.err
	}
	return m.Revisions, m.ListErr
}

// Fetch returns registered content, a registered error, or ErrSnapshotNotFound.
func (m *MockBackend) Fetch(_ context.Context, loc Locator, rev RevisionInfo) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mockKey(loc, rev.Number)
	m.fetched = append(m.fetched, key)
	if err, ok := m.fetchErrs[key]; ok {
		return nil, err
	}
	content, ok := m.snapshots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
	}
	return NewSnapshot(content, func() error {
		m.mu.Lock()
		m.released++
		m.mu.Unlock()
		return nil
	}), nil
}

// ListFiles returns the predefined file list.
func (m *MockBackend) ListFiles(_ context.Context, _ Locator) ([]string, error) {
	return m.Files, nil
}

// Fetched returns the "path@rev" keys requested so far, in call order.
func (m *MockBackend) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// Released returns how many snapshots have been closed.
func (m *MockBackend) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}
