package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// createTestRepo creates a temporary git repository
func createTestRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	tmpDir := t.TempDir()

	repo, err := git.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatalf("Failed to initialize git repo: %v", err)
	}

	return tmpDir, repo
}

// commitFile writes content to filename and commits it as author at when.
func commitFile(t *testing.T, repo *git.Repository, filename, content, author string, when time.Time) {
	t.Helper()
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	filePath := filepath.Join(w.Filesystem.Root(), filename)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := w.Add(filename); err != nil {
		t.Fatalf("Failed to add file: %v", err)
	}

	_, err = w.Commit("update "+filename, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author,
			Email: "test@example.com",
			When:  when,
		},
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
}

// renameFile moves from to to and commits the rename as author at when.
func renameFile(t *testing.T, repo *git.Repository, from, to, author string, when time.Time) {
	t.Helper()
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := w.Move(from, to); err != nil {
		t.Fatalf("Failed to move %s: %v", from, err)
	}
	_, err = w.Commit("rename "+from, &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: "test@example.com", When: when},
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
}

// discardOutput redirects stdout while fn runs.
func discardOutput(t *testing.T, fn func()) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	oldStdout := os.Stdout
	os.Stdout = w

	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, r)
		close(done)
	}()

	fn()

	w.Close()
	<-done
	os.Stdout = oldStdout
}
