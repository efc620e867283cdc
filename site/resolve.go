package site

import (
	"context"
	"errors"

	"github.com/ancientlore/docserve/content"
	"github.com/ancientlore/docserve/index"
)

// Resolution is the outcome of resolving a request. Either Redirect is set,
// or Version and Slug name an article to render.
type Resolution struct {
	Redirect string
	Version  string
	Slug     string
}

// Canonical returns the canonical name of version.
func (s *Site) Canonical(version string) (string, bool) {
	c, ok := s.cfg.Aliases[version]
	return c, ok
}

// Resolve applies the redirect rules to a request for version and slug.
func (s *Site) Resolve(ctx context.Context, version, slug string) (Resolution, error) {
	if version == "" {
		ix, err := s.Index(ctx, s.cfg.DefaultVersion)
		if err != nil {
			return Resolution{}, err
		}
		target, ok := s.defaultSlug(ix)
		if !ok {
			return Resolution{}, ErrNotFound
		}
		return Resolution{Redirect: Path(s.cfg.DefaultVersion, target)}, nil
	}

	if canonical, ok := s.Canonical(version); ok {
		return Resolution{Redirect: Path(canonical, slug)}, nil
	}

	if slug != "" {
		if !content.ValidName(version) || !content.ValidName(slug) {
			return Resolution{}, ErrNotFound
		}
		return Resolution{Version: version, Slug: slug}, nil
	}

	ix, err := s.Index(ctx, version)
	if errors.Is(err, ErrNotFound) {
		return s.resolveDefaultSlug(ctx, version)
	} else if err != nil {
		return Resolution{}, err
	}
	first, ok := ix.First()
	if !ok {
		return Resolution{}, ErrNotFound
	}
	return Resolution{Redirect: Path(version, first.Slug)}, nil
}

// resolveDefaultSlug treats a single path segment that is not a version as an
// article of the default version.
func (s *Site) resolveDefaultSlug(ctx context.Context, slug string) (Resolution, error) {
	ix, err := s.Index(ctx, s.cfg.DefaultVersion)
	if err != nil {
		return Resolution{}, err
	}
	if _, ok := ix.Find(slug); !ok {
		return Resolution{}, ErrNotFound
	}
	return Resolution{Redirect: Path(s.cfg.DefaultVersion, slug)}, nil
}

// defaultSlug returns the first default slug present in ix, or the first article.
func (s *Site) defaultSlug(ix index.Index) (string, bool) {
	for _, slug := range s.cfg.DefaultSlugs {
		if _, ok := ix.Find(slug); ok {
			return slug, true
		}
	}
	first, ok := ix.First()
	return first.Slug, ok
}
