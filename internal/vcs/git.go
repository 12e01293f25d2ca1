package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOptions configures the git backend.
type GitOptions struct {
	CloneDir string // where remote repositories are cloned
	NoPull   bool   // skip updating an existing clone
}

// GitBackend reads history and snapshots from a git repository through go-git.
//
// Revision numbers are the 1-based position of a commit on the first-parent
// chain of HEAD, oldest first. Appending commits or merging branches at the
// tip never renumbers earlier commits. Commits reached only through a merged
// branch are not numbered; their changes are listed under the merge commit.
type GitBackend struct {
	repo *git.Repository

	mu    sync.Mutex
	chain []*object.Commit // first-parent chain, newest first
	head  plumbing.Hash
}

// OpenGitBackend opens a local repository, or clones root into opts.CloneDir
// when it is a remote URL (pulling if the clone already exists).
func OpenGitBackend(ctx context.Context, root string, opts GitOptions) (*GitBackend, error) {
	if !isRemoteURL(root) {
		repo, err := git.PlainOpen(root)
		if err != nil {
			return nil, fmt.Errorf("open repository %s: %w", root, err)
		}
		return &GitBackend{repo: repo}, nil
	}

	dir := filepath.Join(opts.CloneDir, repoDirName(root))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: root})
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", root, err)
		}
		return &GitBackend{repo: repo}, nil
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open clone %s: %w", dir, err)
	}
	if !opts.NoPull {
		wt, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("worktree %s: %w", dir, err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Force: true})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil, fmt.Errorf("pull %s: %w", root, err)
		}
	}
	return &GitBackend{repo: repo}, nil
}

func isRemoteURL(root string) bool {
	return strings.Contains(root, "://") || strings.HasPrefix(root, "git@")
}

func repoDirName(url string) string {
	name := path.Base(strings.TrimRight(url, "/"))
	if i := strings.LastIndexByte(name, ':'); i != -1 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

// List returns the first-parent commits that leave the resource with new
// content, newest first. Commits that delete the resource are not listed.
func (b *GitBackend) List(ctx context.Context, loc Locator) ([]RevisionInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, err := b.repo.Head()
	if err != nil {
		return nil, err
	}
	if err := b.loadChain(ref.Hash()); err != nil {
		return nil, err
	}

	file := loc.Path()
	var revs []RevisionInfo
	for i, c := range b.chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		blob, ok, err := blobAt(c, file)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if i+1 < len(b.chain) {
			prev, had, err := blobAt(b.chain[i+1], file)
			if err != nil {
				return nil, err
			}
			if had && prev == blob {
				continue
			}
		}
		revs = append(revs, RevisionInfo{
			Number:    len(b.chain) - i,
			ID:        c.Hash.String(),
			Author:    c.Author.Name,
			Timestamp: c.Author.When.Format(time.RFC3339),
		})
	}
	return revs, nil
}

// loadChain walks the first parents of head.
func (b *GitBackend) loadChain(head plumbing.Hash) error {
	if b.chain != nil && b.head == head {
		return nil
	}

	c, err := b.repo.CommitObject(head)
	if err != nil {
		return err
	}
	var chain []*object.Commit
	for {
		chain = append(chain, c)
		if c.NumParents() == 0 {
			break
		}
		if c, err = c.Parent(0); err != nil {
			return fmt.Errorf("parent of %s: %w", chain[len(chain)-1].Hash, err)
		}
	}
	b.chain = chain
	b.head = head
	return nil
}

// blobAt returns the blob hash of file in c's tree and whether it exists.
func blobAt(c *object.Commit, file string) (plumbing.Hash, bool, error) {
	tree, err := c.Tree()
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	entry, err := tree.FindEntry(file)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	return entry.Hash, true, nil
}

// Fetch reads the resource file from the commit identified by rev.ID.
func (b *GitBackend) Fetch(ctx context.Context, loc Locator, rev RevisionInfo) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rev.ID == "" {
		return nil, fmt.Errorf("revision %d has no commit id", rev.Number)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	commit, err := b.repo.CommitObject(plumbing.NewHash(rev.ID))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: commit %s", ErrSnapshotNotFound, rev.ID)
		}
		return nil, err
	}

	file, err := commit.File(loc.Path())
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s@%s", ErrSnapshotNotFound, loc.Path(), rev.ID)
		}
		return nil, err
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s@%s: %w", loc.Path(), rev.ID, err)
	}
	return NewSnapshot([]byte(contents), nil), nil
}

// ListFiles lists every file in the HEAD tree.
func (b *GitBackend) ListFiles(ctx context.Context, _ Locator) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, err := b.repo.Head()
	if err != nil {
		return nil, err
	}
	commit, err := b.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	var files []string
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		files = append(files, f.Name)
		return nil
	})
	return files, err
}
