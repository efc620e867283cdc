package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Dir reads content from a file system, typically os.DirFS of a local
// checkout during development.
type Dir struct {
	fs fs.FS
}

// NewDir returns a Dir reading from fsys.
func NewDir(fsys fs.FS) *Dir {
	return &Dir{fs: fsys}
}

// ReadArticle returns the raw text of <version>/<slug>.mdx or <version>/<slug>.md.
func (d *Dir) ReadArticle(ctx context.Context, version, slug string) ([]byte, error) {
	if err := check(version, slug); err != nil {
		return nil, err
	}
	for _, p := range articlePaths(version, slug) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := fs.ReadFile(d.fs, p)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ReadArticle: %w", err)
		}
	}
	return nil, ErrNotFound
}

// ReadIndex returns the raw text of <version>/metadata.json.
func (d *Dir) ReadIndex(ctx context.Context, version string) ([]byte, error) {
	if err := check(version); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := fs.ReadFile(d.fs, path.Join(version, IndexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("ReadIndex: %w", err)
	}
	return b, nil
}

// Versions returns the top-level folders, skipping hidden ones.
func (d *Dir) Versions(ctx context.Context) ([]string, error) {
	entries, err := fs.ReadDir(d.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("Versions: %w", err)
	}
	var v []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") && ValidName(entry.Name()) {
			v = append(v, entry.Name())
		}
	}
	sort.Strings(v)
	return v, nil
}

// Articles walks version and calls fn with the slug and raw text of every
// article. It is used to rebuild metadata indexes.
func (d *Dir) Articles(version string, fn func(slug string, raw []byte) error) error {
	if err := check(version); err != nil {
		return err
	}
	entries, err := fs.ReadDir(d.fs, version)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("Articles: %w", err)
	}
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext != ".md" && ext != ".mdx" {
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ext)
		if seen[slug] || !ValidName(slug) {
			continue
		}
		seen[slug] = true
		b, err := d.ReadArticle(context.Background(), version, slug)
		if err != nil {
			return err
		}
		if err := fn(slug, b); err != nil {
			return err
		}
	}
	return nil
}
