package site

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/markdown"
)

// maxSearchContent limits the text of a search entry.
const maxSearchContent = 4096

// SearchEntry is a record of the search index of a version.
type SearchEntry struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Section     string   `json:"section"`
	URL         string   `json:"url"`
	Headings    []string `json:"headings,omitempty"`
	Content     string   `json:"content"`
}

// SearchEntries returns a search record for every article of version.
// Articles that cannot be fetched are skipped.
func (s *Site) SearchEntries(ctx context.Context, version string) ([]SearchEntry, error) {
	ix, err := s.Index(ctx, version)
	if err != nil {
		return nil, err
	}
	entries := make([]SearchEntry, 0, ix.Len())
	for _, sec := range ix {
		for _, e := range sec.Children {
			a, err := s.Article(ctx, version, e.Slug)
			if errors.Is(err, ErrNotFound) {
				continue
			} else if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.log.WarnContext(ctx, "Skipping search entry", logattr.Version(version), logattr.Slug(e.Slug), logattr.Error(err))
				continue
			}
			html, toc, err := s.compiler.Render(ctx, a.Body)
			if err != nil {
				return nil, err
			}
			var headings []string
			for _, h := range toc {
				headings = append(headings, h.Title)
			}
			description := a.FrontMatter.Description
			if description == "" {
				description = e.Description
			}
			entries = append(entries, SearchEntry{
				Title:       e.Title,
				Description: description,
				Section:     sec.Section,
				URL:         Path(version, e.Slug),
				Headings:    headings,
				Content:     truncate(markdown.PlainText(string(html)), maxSearchContent),
			})
		}
	}
	return entries, nil
}

// SitemapURLs returns the absolute URL of every article of every version.
func (s *Site) SitemapURLs(ctx context.Context) ([]string, error) {
	versions, err := s.Versions(ctx)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(s.cfg.BaseURL, "/")
	var urls []string
	for _, v := range versions {
		ix, err := s.Index(ctx, v)
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		for _, slug := range ix.Slugs() {
			urls = append(urls, base+Path(v, slug))
		}
	}
	return urls, nil
}

// truncate shortens s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
