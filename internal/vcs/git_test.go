package vcs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"
)

// newTestRepo builds a repository with three commits:
//  1. adds apertium-kaz.kaz.lexc
//  2. adds README (does not touch the resource)
//  3. modifies apertium-kaz.kaz.lexc
func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	commit := func(author, rel, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, rel), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := wt.Add(rel); err != nil {
			t.Fatalf("Add: %v", err)
		}
		step++
		sig := &object.Signature{Name: author, Email: author + "@example.com", When: base.Add(time.Duration(step) * time.Hour)}
		if _, err := wt.Commit("commit", &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	commit("alice", "apertium-kaz.kaz.lexc", "LEXICON Root\n")
	commit("bob", "README", "readme\n")
	commit("carol", "apertium-kaz.kaz.lexc", "LEXICON Root\nNouns ;\n")
	return dir
}

func TestGitBackend_ListAndFetch(t *testing.T) {
	dir := newTestRepo(t)
	b, err := OpenGitBackend(context.Background(), dir, GitOptions{})
	if err != nil {
		t.Fatalf("OpenGitBackend: %v", err)
	}

	loc := Locator{Entity: "kaz", Format: "lexc", PathTemplate: DefaultGitPathTemplate}
	revs, err := b.List(context.Background(), loc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(revs) != 2 {
		t.Fatalf("revisions = %d, expected 2", len(revs))
	}

	// Newest first; numbers are positions on the first-parent chain.
	if revs[0].Number != 3 || revs[0].Author != "carol" {
		t.Errorf("revs[0] = %+v, expected number 3 by carol", revs[0])
	}
	if revs[1].Number != 1 || revs[1].Author != "alice" {
		t.Errorf("revs[1] = %+v, expected number 1 by alice", revs[1])
	}
	if _, err := time.Parse(time.RFC3339, revs[0].Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", revs[0].Timestamp, err)
	}

	snap, err := b.Fetch(context.Background(), loc, revs[1])
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer snap.Close()
	if string(snap.Content) != "LEXICON Root\n" {
		t.Errorf("content = %q", snap.Content)
	}
}

func TestGitBackend_FetchMissingPath(t *testing.T) {
	dir := newTestRepo(t)
	b, err := OpenGitBackend(context.Background(), dir, GitOptions{})
	if err != nil {
		t.Fatalf("OpenGitBackend: %v", err)
	}

	loc := Locator{Entity: "kaz", Format: "lexc", PathTemplate: DefaultGitPathTemplate}
	revs, err := b.List(context.Background(), loc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	alias := Locator{Entity: "kk", Format: "lexc", PathTemplate: DefaultGitPathTemplate}
	_, err = b.Fetch(context.Background(), alias, revs[0])
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestGitBackend_ListFilesAndDetectFormat(t *testing.T) {
	dir := newTestRepo(t)
	b, err := OpenGitBackend(context.Background(), dir, GitOptions{})
	if err != nil {
		t.Fatalf("OpenGitBackend: %v", err)
	}

	loc := Locator{Entity: "kaz", PathTemplate: DefaultGitPathTemplate}
	format, err := DetectFormat(context.Background(), b, loc, []string{"lexc", "dix", "metadix"})
	if err != nil {
		t.Fatalf("DetectFormat: %v", err)
	}
	if format != "lexc" {
		t.Errorf("format = %q, expected lexc", format)
	}
}

// branchRepo is a repository the tests grow commit by commit, on any branch.
type branchRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
	wt   *gogit.Worktree
	step int
}

func newBranchRepo(t *testing.T) *branchRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	return &branchRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *branchRepo) signature(hour int) *object.Signature {
	when := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(hour) * time.Hour)
	return &object.Signature{Name: "dev", Email: "dev@example.com", When: when}
}

// write stages content for rel without committing.
func (r *branchRepo) write(rel, content string) {
	r.t.Helper()
	if err := os.WriteFile(filepath.Join(r.dir, rel), []byte(content), 0o644); err != nil {
		r.t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.wt.Add(rel); err != nil {
		r.t.Fatalf("Add: %v", err)
	}
}

// commit records the staged changes at the given hour, with explicit parents
// when any are passed.
func (r *branchRepo) commit(hour int, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	sig := r.signature(hour)
	hash, err := r.wt.Commit("commit", &gogit.CommitOptions{Author: sig, Committer: sig, Parents: parents})
	if err != nil {
		r.t.Fatalf("Commit: %v", err)
	}
	return hash
}

func (r *branchRepo) checkout(opts *gogit.CheckoutOptions) {
	r.t.Helper()
	opts.Force = true
	if err := r.wt.Checkout(opts); err != nil {
		r.t.Fatalf("Checkout: %v", err)
	}
}

func (r *branchRepo) list(loc Locator) []RevisionInfo {
	r.t.Helper()
	b, err := OpenGitBackend(context.Background(), r.dir, GitOptions{})
	if err != nil {
		r.t.Fatalf("OpenGitBackend: %v", err)
	}
	revs, err := b.List(context.Background(), loc)
	if err != nil {
		r.t.Fatalf("List: %v", err)
	}
	return revs
}

func numbersByCommit(revs []RevisionInfo) map[string]int {
	out := make(map[string]int, len(revs))
	for _, rev := range revs {
		out[rev.ID] = rev.Number
	}
	return out
}

func TestGitBackend_MergeKeepsRevisionNumbers(t *testing.T) {
	r := newBranchRepo(t)
	loc := Locator{Entity: "kaz", Format: "lexc", PathTemplate: DefaultGitPathTemplate}
	file := loc.Path()

	r.write(file, "v1\n")
	c1 := r.commit(1)
	r.write(file, "v3\n")
	c3 := r.commit(3)
	r.write(file, "v4\n")
	c4 := r.commit(4)

	before := r.list(loc)
	expectedBefore := map[string]int{c1.String(): 1, c3.String(): 2, c4.String(): 3}
	if diff := cmp.Diff(expectedBefore, numbersByCommit(before)); diff != "" {
		t.Fatalf("numbers before merge (-want +got):\n%s", diff)
	}

	// A side branch off c1 with a commit older than the tip, merged afterwards.
	r.checkout(&gogit.CheckoutOptions{Hash: c1, Branch: plumbing.NewBranchReferenceName("side"), Create: true})
	r.write(file, "side\n")
	side := r.commit(2)
	r.checkout(&gogit.CheckoutOptions{Branch: plumbing.Master})
	r.write(file, "merged\n")
	merge := r.commit(5, c4, side)

	after := r.list(loc)
	expectedAfter := map[string]int{c1.String(): 1, c3.String(): 2, c4.String(): 3, merge.String(): 4}
	if diff := cmp.Diff(expectedAfter, numbersByCommit(after)); diff != "" {
		t.Errorf("numbers after merge (-want +got):\n%s", diff)
	}
	if after[0].ID != merge.String() {
		t.Errorf("newest revision = %s, expected the merge commit", after[0].ID)
	}
}

func TestGitBackend_ListSkipsUnchangedAndDeleted(t *testing.T) {
	r := newBranchRepo(t)
	loc := Locator{Entity: "kaz", Format: "lexc", PathTemplate: DefaultGitPathTemplate}
	file := loc.Path()

	r.write(file, "v1\n")
	c1 := r.commit(1)
	r.write("README", "readme\n")
	r.commit(2)
	if _, err := r.wt.Remove(file); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	r.commit(3)
	r.write(file, "v4\n")
	c4 := r.commit(4)

	revs := r.list(loc)
	expected := map[string]int{c4.String(): 4, c1.String(): 1}
	if diff := cmp.Diff(expected, numbersByCommit(revs)); diff != "" {
		t.Errorf("listed revisions (-want +got):\n%s", diff)
	}
}

func TestOpenGitBackend_InvalidPath(t *testing.T) {
	if _, err := OpenGitBackend(context.Background(), t.TempDir(), GitOptions{}); err == nil {
		t.Fatal("expected error for non-repository directory")
	}
}

func TestRepoDirName(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{url: "https://github.com/apertium/apertium-kaz", expected: "apertium-kaz"},
		{url: "https://github.com/apertium/apertium-kaz.git", expected: "apertium-kaz"},
		{url: "git@github.com:apertium-kaz.git", expected: "apertium-kaz"},
	}
	for _, tt := range tests {
		if got := repoDirName(tt.url); got != tt.expected {
			t.Errorf("repoDirName(%q) = %q, expected %q", tt.url, got, tt.expected)
		}
	}
}
