package site

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancientlore/docserve/content"
	"github.com/ancientlore/docserve/markdown"
)

const mainIndex = `[
  {"section": "Getting Started", "children": [
    {"title": "Routing", "shortTitle": "Routing", "slug": "routing", "position": 2},
    {"title": "Installation", "shortTitle": "Install", "slug": "installation", "position": 1},
    {"title": "Hello World", "shortTitle": "Hello", "slug": "hello", "position": 3}
  ]},
  {"section": "Plugins", "children": [
    {"title": "Cookies", "shortTitle": "Cookies", "slug": "cookies", "position": 1, "description": "Cookie helpers"},
    {"title": "Gone", "shortTitle": "Gone", "slug": "gone", "position": 2}
  ]}
]`

const v1Index = `[{"section": "Basics", "children": [{"title": "Intro", "shortTitle": "Intro", "slug": "intro", "position": 1}]}]`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"main/metadata.json":  {Data: []byte(mainIndex)},
		"main/installation.md": {Data: []byte("---\ntitle: Installation\nposition: 1\n---\n## Requirements\n\nGo.\n")},
		"main/routing.mdx":    {Data: []byte("---\ntitle: Routing\naltTitle: Routing in depth\nposition: 2\n---\nimport X from 'x'\n\n## Params\n\n### Wildcards\n\nText.\n")},
		"main/hello.md":       {Data: []byte("---\ntitle: Hello\nshowToc: false\n---\n## Hidden toc\n")},
		"main/cookies.md":     {Data: []byte("Cookies without front matter.\n")},
		"main/ghost.md":       {Data: []byte("---\ntitle: Ghost\n---\nNot indexed.\n")},
		"v1/metadata.json":    {Data: []byte(v1Index)},
		"v1/intro.md":         {Data: []byte("---\ntitle: Intro\n---\nOld.\n")},
	}
}

func newSite(t *testing.T, src content.Source, cfg Config) *Site {
	t.Helper()
	c, err := markdown.New(markdown.Options{})
	require.NoError(t, err)
	return New(src, c, cfg)
}

func testSite(t *testing.T) *Site {
	return newSite(t, content.NewDir(testFS()), Config{
		Aliases: map[string]string{"latest": "main", "legacy": "v1"},
		BaseURL: "https://docs.example.com/",
	})
}

func TestResolve(t *testing.T) {
	s := testSite(t)
	ctx := context.Background()
	tests := []struct {
		version, slug string
		want          Resolution
	}{
		{"", "", Resolution{Redirect: "/docs/main/installation"}},
		{"latest", "routing", Resolution{Redirect: "/docs/main/routing"}},
		{"legacy", "", Resolution{Redirect: "/docs/v1"}},
		{"main", "", Resolution{Redirect: "/docs/main/installation"}},
		{"v1", "", Resolution{Redirect: "/docs/v1/intro"}},
		{"routing", "", Resolution{Redirect: "/docs/main/routing"}},
		{"main", "routing", Resolution{Version: "main", Slug: "routing"}},
	}
	for _, tt := range tests {
		got, err := s.Resolve(ctx, tt.version, tt.slug)
		require.NoError(t, err, "%s/%s", tt.version, tt.slug)
		assert.Equal(t, tt.want, got, "%s/%s", tt.version, tt.slug)
	}

	for _, bad := range [][2]string{{"nope", ""}, {"main", "../x"}, {"..", "x"}} {
		_, err := s.Resolve(ctx, bad[0], bad[1])
		assert.ErrorIs(t, err, ErrNotFound, "%v", bad)
	}
}

func TestResolveDefaultSlugFallback(t *testing.T) {
	fsys := testFS()
	fsys["main/metadata.json"] = &fstest.MapFile{Data: []byte(`[{"section": "A", "children": [
		{"title": "B", "shortTitle": "B", "slug": "b", "position": 2},
		{"title": "Intro", "shortTitle": "Intro", "slug": "intro", "position": 5}]}]`)}
	s := newSite(t, content.NewDir(fsys), Config{})
	r, err := s.Resolve(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "/docs/main/intro", r.Redirect)

	s = newSite(t, content.NewDir(fsys), Config{DefaultSlugs: []string{"missing"}})
	r, err = s.Resolve(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "/docs/main/b", r.Redirect)
}

func TestPage(t *testing.T) {
	s := testSite(t)
	p, err := s.Page(context.Background(), "main", "routing")
	require.NoError(t, err)
	assert.Equal(t, "Routing in depth", p.Title)
	assert.NotEmpty(t, p.Fingerprint)
	assert.NotContains(t, string(p.HTML), "import X")
	require.Len(t, p.TOC, 2)
	assert.Equal(t, "params", p.TOC[0].ID)
	assert.Equal(t, "wildcards", p.TOC[1].ID)
	require.NotNil(t, p.Prev)
	require.NotNil(t, p.Next)
	assert.Equal(t, "installation", p.Prev.Slug)
	assert.Equal(t, "hello", p.Next.Slug)
	require.Len(t, p.Sidebar, 2)
	assert.True(t, p.Sidebar[0].Active)
	assert.True(t, p.Sidebar[0].Items[1].Active)
}

func TestPageBoundariesAndFlags(t *testing.T) {
	s := testSite(t)
	ctx := context.Background()

	p, err := s.Page(ctx, "main", "hello")
	require.NoError(t, err)
	assert.Nil(t, p.TOC)
	assert.Nil(t, p.Next)

	p, err = s.Page(ctx, "main", "cookies")
	require.NoError(t, err)
	assert.Equal(t, "Cookies", p.Title)
	assert.Nil(t, p.Prev)
	assert.NotNil(t, p.Next)
}

func TestPageNotFound(t *testing.T) {
	s := testSite(t)
	ctx := context.Background()
	for _, tt := range [][2]string{
		{"main", "ghost"},
		{"main", "gone"},
		{"main", "missing"},
		{"v9", "intro"},
		{"main", "../v1/intro"},
	} {
		_, err := s.Page(ctx, tt[0], tt[1])
		assert.ErrorIs(t, err, ErrNotFound, "%v", tt)
	}
}

type brokenSource struct{}

func (brokenSource) ReadArticle(ctx context.Context, version, slug string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenSource) ReadIndex(ctx context.Context, version string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestUpstreamErrors(t *testing.T) {
	s := newSite(t, brokenSource{}, Config{})
	ctx := context.Background()

	_, err := s.Page(ctx, "main", "intro")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Error(t, s.Health(ctx))
	_, err = s.Resolve(ctx, "", "")
	assert.ErrorAs(t, err, &upstream)
}

func TestMalformedIndex(t *testing.T) {
	fsys := testFS()
	fsys["main/metadata.json"] = &fstest.MapFile{Data: []byte(`{"not": "an array"}`)}
	s := newSite(t, content.NewDir(fsys), Config{})
	_, err := s.Page(context.Background(), "main", "routing")
	var upstream *UpstreamError
	assert.ErrorAs(t, err, &upstream)
	assert.Error(t, s.Health(context.Background()))
}

func TestHealth(t *testing.T) {
	assert.NoError(t, testSite(t).Health(context.Background()))
}

func TestVersions(t *testing.T) {
	v, err := testSite(t).Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "v1"}, v)

	v, err = newSite(t, brokenSource{}, Config{DefaultVersion: "next"}).Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"next"}, v)
}

func TestWarm(t *testing.T) {
	n, err := testSite(t).Warm(context.Background())
	require.NoError(t, err)
	// main/gone is indexed but has no file.
	assert.Equal(t, 5, n)
}

func TestSearchEntries(t *testing.T) {
	entries, err := testSite(t).SearchEntries(context.Background(), "main")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "Installation", entries[0].Title)
	assert.Equal(t, "/docs/main/installation", entries[0].URL)
	assert.Equal(t, []string{"Requirements"}, entries[0].Headings)
	assert.Contains(t, entries[0].Content, "Go.")
	assert.Equal(t, "Cookie helpers", entries[3].Description)
	assert.Equal(t, "Plugins", entries[3].Section)
}

func TestSitemapURLs(t *testing.T) {
	urls, err := testSite(t).SitemapURLs(context.Background())
	require.NoError(t, err)
	assert.Contains(t, urls, "https://docs.example.com/docs/main/installation")
	assert.Contains(t, urls, "https://docs.example.com/docs/v1/intro")
	assert.Len(t, urls, 6)
}

func TestRawIndex(t *testing.T) {
	b, err := testSite(t).RawIndex(context.Background(), "v1")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"slug": "intro"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "a", truncate("aé", 2))
}
