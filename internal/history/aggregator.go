package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/masmgr/stemhistory/internal/store"
	"github.com/masmgr/stemhistory/internal/vcs"
)

// ErrHistoryUnavailable reports that the primary history could not be listed.
var ErrHistoryUnavailable = errors.New("history unavailable")

// StoreFile loads and saves the persisted store.
type StoreFile interface {
	Load() (store.Store, error)
	Save(store.Store) error
	Path() string
}

// Job describes one aggregation run.
type Job struct {
	Entity   string // Store key; defaults to Primary.Entity
	Primary  vcs.Locator
	Fallback *vcs.Locator
}

func (j Job) entity() string {
	if j.Entity != "" {
		return j.Entity
	}
	return j.Primary.Entity
}

// Summary reports the outcome of a run.
type Summary struct {
	Entity      string
	StorePath   string
	Total       int // Revisions listed remotely
	Skipped     int // Already recorded
	Added       int
	Failures    []Failure
	Written     bool
	Interrupted bool
	Elapsed     time.Duration
}

// Aggregator runs load, list, resolve, measure, merge and save for a job.
type Aggregator struct {
	Lister   vcs.RevisionLister
	Pipeline *Pipeline
	Store    StoreFile
	Logger   *zap.Logger
}

// Run brings the stored series for job up to date with the remote history.
//
// Store load and history listing errors abort the run before anything is
// written. Per-revision failures are reported in the summary. The store is
// written at most once, and only when new records were added. If ctx is
// cancelled while measuring, the records gathered so far are still saved and
// the context error is returned along with the summary.
func (a *Aggregator) Run(ctx context.Context, job Job) (*Summary, error) {
	start := time.Now()
	entity := job.entity()
	logger := a.logger().With(zap.String("entity", entity))
	summary := &Summary{Entity: entity, StorePath: a.Store.Path()}

	existing, err := a.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	revisions, err := a.listHistory(ctx, job, logger)
	if err != nil {
		return nil, err
	}
	summary.Total = len(revisions)

	toFetch, skipped := Resolve(revisions, RecordedRevisions(existing[entity]))
	summary.Skipped = skipped
	logger.Info("resolved history",
		zap.Int("total", len(revisions)),
		zap.Int("skipped", skipped),
		zap.Int("pending", len(toFetch)))

	records, failures, measureErr := a.Pipeline.Measure(ctx, toFetch, job.Primary, job.Fallback)
	summary.Failures = failures
	summary.Interrupted = measureErr != nil

	merged, added := Merge(existing, entity, records)
	summary.Added = added
	if added > 0 {
		if err := a.Store.Save(merged); err != nil {
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("failed to save store: %w", err)
		}
		summary.Written = true
		logger.Info("store updated", zap.String("path", summary.StorePath), zap.Int("added", added))
	}

	summary.Elapsed = time.Since(start)
	if measureErr != nil {
		return summary, measureErr
	}
	return summary, nil
}

// listHistory lists the primary history. With a fallback, the fallback's
// revisions older than the primary's first one are added, which covers the
// history of a resource from before it was moved or renamed. A fallback that
// cannot be listed is skipped.
func (a *Aggregator) listHistory(ctx context.Context, job Job, logger *zap.Logger) ([]vcs.RevisionInfo, error) {
	revisions, err := a.Lister.List(ctx, job.Primary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHistoryUnavailable, job.Primary, err)
	}
	if job.Fallback == nil {
		return revisions, nil
	}

	older, err := a.Lister.List(ctx, *job.Fallback)
	if err != nil {
		logger.Debug("fallback history unavailable", zap.Stringer("fallback", job.Fallback), zap.Error(err))
		return revisions, nil
	}
	return appendOlder(revisions, older), nil
}

// appendOlder appends the revisions of older that predate every revision in
// revisions, newest first.
func appendOlder(revisions, older []vcs.RevisionInfo) []vcs.RevisionInfo {
	first := math.MaxInt
	for _, rev := range revisions {
		first = min(first, rev.Number)
	}

	var extra []vcs.RevisionInfo
	for _, rev := range older {
		if rev.Number < first {
			extra = append(extra, rev)
		}
	}
	if len(extra) == 0 {
		return revisions
	}
	sort.SliceStable(extra, func(i, j int) bool { return extra[i].Number > extra[j].Number })
	return append(append([]vcs.RevisionInfo(nil), revisions...), extra...)
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
