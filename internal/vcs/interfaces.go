package vcs

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound reports that the resource did not exist at the given
// location and revision. It is distinct from transport failures.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// RevisionLister enumerates the history of a resource.
// An empty result means the resource has no history; an invalid locator is an error.
type RevisionLister interface {
	List(ctx context.Context, loc Locator) ([]RevisionInfo, error)
}

// SnapshotFetcher retrieves resource content as of a revision.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, loc Locator, rev RevisionInfo) (*Snapshot, error)
}

// FileLister lists the files that sit next to a resource.
// Paths are relative to the locator root.
type FileLister interface {
	ListFiles(ctx context.Context, loc Locator) ([]string, error)
}

// Backend is a repository able to both list history and fetch snapshots.
type Backend interface {
	RevisionLister
	SnapshotFetcher
}

// Snapshot holds the content of a resource at one revision.
// Close releases any materialized copy and must be called once the metric
// has been extracted.
type Snapshot struct {
	Content []byte
	release func() error
}

// NewSnapshot wraps content; release (may be nil) runs on Close.
func NewSnapshot(content []byte, release func() error) *Snapshot {
	return &Snapshot{Content: content, release: release}
}

// Close drops the content and runs the release hook once.
func (s *Snapshot) Close() error {
	if s == nil {
		return nil
	}
	s.Content = nil
	release := s.release
	s.release = nil
	if release == nil {
		return nil
	}
	return release()
}

// Compile-time interface conformance checks.
var (
	_ Backend    = (*SVNBackend)(nil)
	_ Backend    = (*GitBackend)(nil)
	_ Backend    = (*MockBackend)(nil)
	_ FileLister = (*SVNBackend)(nil)
	_ FileLister = (*GitBackend)(nil)
	_ FileLister = (*MockBackend)(nil)
)
