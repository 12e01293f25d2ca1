package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/masmgr/stemhistory/internal/metric"
	"github.com/masmgr/stemhistory/internal/store"
	"github.com/masmgr/stemhistory/internal/vcs"
)

// Failure records a revision that could not be measured.
type Failure struct {
	Revision vcs.RevisionInfo
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("revision %d: %v", f.Revision.Number, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Pipeline fetches snapshots and measures them.
type Pipeline struct {
	Fetcher   vcs.SnapshotFetcher
	Extractor metric.Extractor

	Workers    int                   // Concurrent fetches; values below 1 mean sequential
	Limiter    *rate.Limiter         // Optional throttle applied to every fetch
	OnProgress func(done, total int) // Optional; called after each revision
	Logger     *zap.Logger
}

type outcome struct {
	record  *store.Record
	failure *Failure
}

// Measure fetches and measures each revision of toFetch. A revision missing
// at primary is retried once at fallback, when given; any other fetch error
// is recorded as a failure without fallback. Records and failures are
// returned in the order of toFetch.
//
// When ctx is cancelled no further revisions are started, in-flight ones
// complete, and the records gathered so far are returned with ctx.Err().
func (p *Pipeline) Measure(ctx context.Context, toFetch []vcs.RevisionInfo, primary vcs.Locator, fallback *vcs.Locator) ([]store.Record, []Failure, error) {
	results := make([]outcome, len(toFetch))
	total := len(toFetch)

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, rev := range toFetch {
		if ctx.Err() != nil {
			break
		}
		i, rev := i, rev
		g.Go(func() error {
			results[i] = p.measure(ctx, rev, primary, fallback)
			if p.OnProgress != nil {
				mu.Lock()
				done++
				p.OnProgress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	var (
		records  []store.Record
		failures []Failure
	)
	for _, r := range results {
		switch {
		case r.record != nil:
			records = append(records, *r.record)
		case r.failure != nil:
			failures = append(failures, *r.failure)
		}
	}
	return records, failures, ctx.Err()
}

func (p *Pipeline) measure(ctx context.Context, rev vcs.RevisionInfo, primary vcs.Locator, fallback *vcs.Locator) outcome {
	if ctx.Err() != nil {
		return outcome{}
	}
	logger := p.logger().With(zap.Int("revision", rev.Number))

	value, err := p.measureAt(ctx, primary, rev)
	if errors.Is(err, vcs.ErrSnapshotNotFound) && fallback != nil {
		logger.Debug("resource absent, trying fallback", zap.String("fallback", fallback.String()))
		value, err = p.measureAt(ctx, *fallback, rev)
	}

	if err != nil {
		if ctx.Err() != nil {
			// Interrupted, not failed: the revision stays unrecorded.
			return outcome{}
		}
		logger.Warn("revision not measured", zap.Error(err))
		return outcome{failure: &Failure{Revision: rev, Err: err}}
	}

	logger.Debug("revision measured", zap.Int("metric", value))
	return outcome{record: &store.Record{
		Revision:  rev.Number,
		Metric:    value,
		Author:    rev.Author,
		Timestamp: rev.Timestamp,
		Commit:    commitID(rev),
	}}
}

func (p *Pipeline) measureAt(ctx context.Context, loc vcs.Locator, rev vcs.RevisionInfo) (int, error) {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}

	snap, err := p.Fetcher.Fetch(ctx, loc, rev)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := snap.Close(); cerr != nil {
			p.logger().Warn("failed to release snapshot", zap.Int("revision", rev.Number), zap.Error(cerr))
		}
	}()

	value, err := p.Extractor.Extract(snap.Content, loc.Format)
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", loc, err)
	}
	return value, nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// commitID keeps the native id only when it is not the revision number itself.
func commitID(rev vcs.RevisionInfo) string {
	if rev.ID == "" || rev.ID == strconv.Itoa(rev.Number) {
		return ""
	}
	return rev.ID
}
