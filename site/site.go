/*
Package site resolves documentation requests to pages: it fetches the metadata index and
article of a version from a content source, compiles the article and attaches navigation.

Requests are resolved with these rules:

  - a legacy version alias redirects to the canonical version, keeping the slug;
  - no version redirects to the default version and its default article;
  - a bare version root redirects to the article with the lowest position in the first section;
  - anything else is a page, or ErrNotFound.
*/
package site

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ancientlore/docserve/content"
	"github.com/ancientlore/docserve/index"
	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/markdown"
	"github.com/ancientlore/docserve/metrics"
)

// ErrNotFound is returned when a version or slug does not resolve to an article.
var ErrNotFound = content.ErrNotFound

// UpstreamError reports a failure to fetch or compile content.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Defaults.
const (
	DefaultVersion = "main"
	DocsPrefix     = "/docs"
)

// DefaultSlugs are tried in order when a request names no article.
var DefaultSlugs = []string{"installation", "intro"}

// Config configures a Site.
type Config struct {
	DefaultVersion string            // version served when none is requested
	DefaultSlugs   []string          // articles tried when none is requested
	Aliases        map[string]string // legacy version name to canonical version
	BaseURL        string            // absolute URL of the site, used in the sitemap
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
}

// Site serves documentation from a content source.
type Site struct {
	src      content.Source
	compiler *markdown.Compiler
	cfg      Config
	log      *slog.Logger
}

// New creates a Site.
func New(src content.Source, compiler *markdown.Compiler, cfg Config) *Site {
	if cfg.DefaultVersion == "" {
		cfg.DefaultVersion = DefaultVersion
	}
	if len(cfg.DefaultSlugs) == 0 {
		cfg.DefaultSlugs = DefaultSlugs
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Site{src: src, compiler: compiler, cfg: cfg, log: log}
}

// DefaultVersion returns the version served when none is requested.
func (s *Site) DefaultVersion() string {
	return s.cfg.DefaultVersion
}

// Compiler returns the Markdown compiler.
func (s *Site) Compiler() *markdown.Compiler {
	return s.compiler
}

// Path returns the URL path of an article, or of a version root when slug is empty.
func Path(version, slug string) string {
	if version == "" {
		return DocsPrefix
	}
	if slug == "" {
		return DocsPrefix + "/" + version
	}
	return DocsPrefix + "/" + version + "/" + slug
}

// Index fetches and decodes the metadata index of version.
func (s *Site) Index(ctx context.Context, version string) (index.Index, error) {
	if !content.ValidName(version) {
		return nil, ErrNotFound
	}
	b, err := s.fetch(ctx, "index", func() ([]byte, error) {
		return s.src.ReadIndex(ctx, version)
	})
	if err != nil {
		return nil, err
	}
	ix, err := index.Decode(b)
	if err != nil {
		return nil, &UpstreamError{Op: "index " + version, Err: err}
	}
	return ix, nil
}

// RawIndex returns the metadata index of version as JSON.
func (s *Site) RawIndex(ctx context.Context, version string) ([]byte, error) {
	ix, err := s.Index(ctx, version)
	if err != nil {
		return nil, err
	}
	return ix.Encode()
}

// Versions lists the available versions. Sources that cannot list versions
// offer only the default version.
func (s *Site) Versions(ctx context.Context) ([]string, error) {
	v, ok := s.src.(content.Versioner)
	if !ok {
		return []string{s.cfg.DefaultVersion}, nil
	}
	versions, err := v.Versions(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "versions", Err: err}
	}
	if len(versions) == 0 {
		return []string{s.cfg.DefaultVersion}, nil
	}
	return versions, nil
}

// Health checks that the index of the default version can be fetched.
func (s *Site) Health(ctx context.Context) error {
	_, err := s.Index(ctx, s.cfg.DefaultVersion)
	return err
}

// fetch reads from the source, recording the outcome. ErrNotFound is returned
// unwrapped; other failures become an UpstreamError.
func (s *Site) fetch(ctx context.Context, kind string, read func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	b, err := read()
	result := "ok"
	switch {
	case errors.Is(err, content.ErrNotFound):
		result = "not_found"
		err = ErrNotFound
	case err != nil:
		result = "error"
		s.log.ErrorContext(ctx, "Source fetch failed", slog.String("kind", kind), logattr.Error(err))
		err = &UpstreamError{Op: "fetch " + kind, Err: err}
	}
	s.cfg.Metrics.ObserveFetch(kind, result, time.Since(start))
	if err != nil {
		return nil, err
	}
	return b, nil
}
