package site

import (
	"context"
	"html/template"
	"time"

	"github.com/ancientlore/docserve/article"
	"github.com/ancientlore/docserve/index"
	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/markdown"
)

// Page is a compiled article with its navigation.
type Page struct {
	Version     string                 `json:"version"`
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title"`
	FrontMatter article.FrontMatter    `json:"frontMatter"`
	HTML        template.HTML          `json:"html"`
	TOC         []markdown.Heading     `json:"toc"`
	Sidebar     []index.SidebarSection `json:"sidebar"`
	Prev        *index.Entry           `json:"prev"`
	Next        *index.Entry           `json:"next"`
	Fingerprint string                 `json:"fingerprint"`
}

// Page fetches, compiles and decorates the article slug of version.
// Slugs missing from the index are not found even when the source has them.
func (s *Site) Page(ctx context.Context, version, slug string) (*Page, error) {
	ix, err := s.Index(ctx, version)
	if err != nil {
		return nil, err
	}
	entry, ok := ix.Find(slug)
	if !ok {
		return nil, ErrNotFound
	}
	a, err := s.Article(ctx, version, slug)
	if err != nil {
		return nil, err
	}
	if a.FrontMatter.Title == "" {
		a.FrontMatter.Title = entry.Title
	}
	if err := a.Validate(); err != nil {
		s.log.WarnContext(ctx, "Invalid front matter", logattr.Version(version), logattr.Slug(slug), logattr.Error(err))
	}

	start := time.Now()
	html, toc, err := s.compiler.Render(ctx, a.Body)
	s.cfg.Metrics.ObserveCompile(time.Since(start))
	if err != nil {
		return nil, &UpstreamError{Op: "compile " + version + "/" + slug, Err: err}
	}
	if !a.FrontMatter.ShowToc {
		toc = nil
	}

	prev, next := ix.Neighbors(slug)
	return &Page{
		Version:     version,
		Slug:        slug,
		Title:       a.FrontMatter.Heading(),
		FrontMatter: a.FrontMatter,
		HTML:        html,
		TOC:         toc,
		Sidebar:     ix.Sidebar(slug),
		Prev:        prev,
		Next:        next,
		Fingerprint: a.Fingerprint,
	}, nil
}

// Article fetches and parses the article slug of version.
func (s *Site) Article(ctx context.Context, version, slug string) (*article.Article, error) {
	b, err := s.fetch(ctx, "article", func() ([]byte, error) {
		return s.src.ReadArticle(ctx, version, slug)
	})
	if err != nil {
		return nil, err
	}
	a, err := article.Parse(version, slug, b)
	if err != nil {
		return nil, &UpstreamError{Op: "parse " + version + "/" + slug, Err: err}
	}
	return a, nil
}
