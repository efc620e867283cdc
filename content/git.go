package content

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// GitConfig configures a Git source.
type GitConfig struct {
	URL   string // clone URL
	Dir   string // folder holding the articles within the repository
	Token string // optional token used for HTTP basic auth
}

// Git reads content from the trees of a repository cloned into memory.
// A version resolves to a tag first and a branch second.
type Git struct {
	repo *git.Repository
	dir  string
	auth *githttp.BasicAuth
	mu   sync.RWMutex
}

// CloneGit clones the repository described by config into memory.
func CloneGit(ctx context.Context, config GitConfig) (*Git, error) {
	g := Git{dir: config.Dir}
	if config.Token != "" {
		g.auth = &githttp.BasicAuth{Username: "docserve", Password: config.Token}
	}
	opts := &git.CloneOptions{
		URL:  config.URL,
		Tags: git.AllTags,
	}
	if g.auth != nil {
		opts.Auth = g.auth
	}
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("CloneGit: %w", err)
	}
	g.repo = repo
	return &g, nil
}

// NewGit wraps an already opened repository.
func NewGit(repo *git.Repository, dir string) *Git {
	return &Git{repo: repo, dir: dir}
}

// Fetch updates tags and branches from the remote.
func (g *Git) Fetch(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	opts := &git.FetchOptions{Tags: git.AllTags, Force: true}
	if g.auth != nil {
		opts.Auth = g.auth
	}
	err := g.repo.FetchContext(ctx, opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("Fetch: %w", err)
	}
	return nil
}

// ReadArticle returns <dir>/<slug>.mdx or <dir>/<slug>.md from the tree of version.
func (g *Git) ReadArticle(ctx context.Context, version, slug string) ([]byte, error) {
	if err := check(version, slug); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	tree, err := g.tree(version)
	if err != nil {
		return nil, err
	}
	for _, p := range articlePaths(g.dir, slug) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := readTreeFile(tree, p)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ReadArticle: %w", err)
		}
		return b, nil
	}
	return nil, ErrNotFound
}

// ReadIndex returns <dir>/metadata.json from the tree of version.
func (g *Git) ReadIndex(ctx context.Context, version string) ([]byte, error) {
	if err := check(version); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	tree, err := g.tree(version)
	if err != nil {
		return nil, err
	}
	b, err := readTreeFile(tree, path.Join(g.dir, IndexFile))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("ReadIndex: %w", err)
	}
	return b, err
}

// Versions lists the repository tags.
func (g *Git) Versions(ctx context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	iter, err := g.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("Versions: %w", err)
	}
	var v []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if name := ref.Name().Short(); ValidName(name) {
			v = append(v, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Versions: %w", err)
	}
	sort.Strings(v)
	return v, nil
}

// tree resolves version to the root tree of its commit.
func (g *Git) tree(version string) (*object.Tree, error) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewTagReferenceName(version),
		plumbing.NewRemoteReferenceName("origin", version),
		plumbing.NewBranchReferenceName(version),
	}
	for _, name := range candidates {
		hash, err := g.repo.ResolveRevision(plumbing.Revision(name))
		if err != nil {
			continue
		}
		commit, err := g.repo.CommitObject(*hash)
		if err != nil {
			return nil, fmt.Errorf("tree: %w", err)
		}
		tree, err := commit.Tree()
		if err != nil {
			return nil, fmt.Errorf("tree: %w", err)
		}
		return tree, nil
	}
	return nil, ErrNotFound
}

func readTreeFile(tree *object.Tree, p string) ([]byte, error) {
	f, err := tree.File(p)
	if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	s, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
