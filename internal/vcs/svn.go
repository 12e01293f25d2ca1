package vcs

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"time"
)

// svn error codes that mean "nothing at this location/revision".
var svnNotFoundCodes = []string{
	"E160013", // path not found
	"W160013",
	"E160006", // no such revision
	"E170000", // URL doesn't exist
	"E195012", // unable to find repository location for path in revision
	"E200009", // could not cat/export all targets
}

// SVNOptions configures the svn client backend.
type SVNOptions struct {
	Command string        // svn executable, default "svn"
	TempDir string        // where exported snapshots are materialized
	Timeout time.Duration // per-command timeout, 0 = none
}

// commandRunner executes an external command and returns stdout and stderr.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

// SVNBackend reads history and snapshots by shelling out to the svn client.
type SVNBackend struct {
	opts SVNOptions
	run  commandRunner
}

// NewSVNBackend creates a backend using the svn executable.
func NewSVNBackend(opts SVNOptions) *SVNBackend {
	if opts.Command == "" {
		opts.Command = "svn"
	}
	return &SVNBackend{opts: opts, run: runCommand}
}

// runCommand runs under the C locale so svn messages and error text stay in
// English whatever the user's locale.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (b *SVNBackend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.Timeout > 0 {
		return context.WithTimeout(ctx, b.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// List runs `svn log --xml` against the resource URL.
func (b *SVNBackend) List(ctx context.Context, loc Locator) ([]RevisionInfo, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	out, stderr, err := b.run(ctx, b.opts.Command, "log", "--xml", "--non-interactive", loc.URL())
	if err != nil {
		return nil, fmt.Errorf("svn log failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return parseSVNLog(out)
}

// Fetch exports the resource at rev into a temporary file and reads it back.
// The temporary file is removed when the snapshot is closed.
func (b *SVNBackend) Fetch(ctx context.Context, loc Locator, rev RevisionInfo) (*Snapshot, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	tmp, err := os.CreateTemp(b.opts.TempDir, "stemhistory-*."+loc.Format)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	release := func() error {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	target := fmt.Sprintf("%s@%d", loc.URL(), rev.Number)
	out, stderr, err := b.run(ctx, b.opts.Command, "export", "--force", "--non-interactive", target, tmpPath)
	if err != nil {
		_ = release()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("svn export %s: %w", target, ctx.Err())
		}
		if isSVNNotFound(stderr) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, target)
		}
		return nil, fmt.Errorf("svn export failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	if !bytes.Contains(out, []byte("Export complete")) && !bytes.Contains(out, []byte("Exported revision")) {
		_ = release()
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, target)
	}

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("read exported snapshot: %w", err)
	}
	return NewSnapshot(content, release), nil
}

// ListFiles lists the directory holding the resource with `svn list`.
func (b *SVNBackend) ListFiles(ctx context.Context, loc Locator) ([]string, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	dir := path.Dir(loc.Path())
	dirLoc := loc
	dirLoc.PathTemplate = dir
	out, stderr, err := b.run(ctx, b.opts.Command, "list", "--non-interactive", dirLoc.URL())
	if err != nil {
		return nil, fmt.Errorf("svn list failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}

	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		files = append(files, path.Join(dir, name))
	}
	return files, nil
}

func isSVNNotFound(stderr []byte) bool {
	for _, code := range svnNotFoundCodes {
		if bytes.Contains(stderr, []byte(code)) {
			return true
		}
	}
	return false
}

type svnLog struct {
	Entries []svnLogEntry `xml:"logentry"`
}

type svnLogEntry struct {
	Revision string `xml:"revision,attr"`
	Author   string `xml:"author"`
	Date     string `xml:"date"`
}

// parseSVNLog parses `svn log --xml` output. Order is preserved (newest first
// as svn emits it).
func parseSVNLog(data []byte) ([]RevisionInfo, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty svn log output")
	}

	var log svnLog
	if err := xml.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse svn log: %w", err)
	}

	revs := make([]RevisionInfo, 0, len(log.Entries))
	for _, e := range log.Entries {
		n, err := strconv.Atoi(strings.TrimSpace(e.Revision))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("parse svn log: invalid revision %q", e.Revision)
		}
		revs = append(revs, RevisionInfo{
			Number:    n,
			ID:        strconv.Itoa(n),
			Author:    e.Author,
			Timestamp: e.Date,
		})
	}
	return revs, nil
}
