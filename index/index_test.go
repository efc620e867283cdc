package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancientlore/docserve/article"
)

const sample = `[
  {
    "section": "Getting Started",
    "children": [
      {"title": "Routing", "shortTitle": "Routing", "slug": "routing", "position": 3},
      {"title": "Installation", "shortTitle": "Install", "slug": "installation", "position": 1, "description": "Set up"},
      {"title": "Hello World", "shortTitle": "", "slug": "hello-world", "position": 2}
    ]
  },
  {
    "section": "Plugins",
    "children": [
      {"title": "Cookies", "shortTitle": "Cookies", "slug": "cookies", "position": 1}
    ]
  }
]`

func decode(t *testing.T) Index {
	t.Helper()
	ix, err := Decode([]byte(sample))
	require.NoError(t, err)
	return ix
}

func TestDecodeSortsByPosition(t *testing.T) {
	ix := decode(t)
	assert.Equal(t, []string{"installation", "hello-world", "routing", "cookies"}, ix.Slugs())
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, "Getting Started", ix[0].Children[0].Section)
}

func TestDecodeInvalid(t *testing.T) {
	tests := map[string]string{
		"malformed":        `[{`,
		"not an array":     `{"section": "x"}`,
		"missing children": `[{"section": "x"}]`,
		"missing title":    `[{"section": "x", "children": [{"shortTitle": "a", "slug": "a", "position": 1}]}]`,
		"negative":         `[{"section": "x", "children": [{"title": "A", "shortTitle": "a", "slug": "a", "position": -1}]}]`,
		"bad slug":         `[{"section": "x", "children": [{"title": "A", "shortTitle": "a", "slug": "../a", "position": 1}]}]`,
		"fractional":       `[{"section": "x", "children": [{"title": "A", "shortTitle": "a", "slug": "a", "position": 1.5}]}]`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(in))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestFind(t *testing.T) {
	ix := decode(t)
	e, ok := ix.Find("installation")
	require.True(t, ok)
	assert.Equal(t, "Installation", e.Title)
	assert.Equal(t, "Install", e.Label())
	assert.Equal(t, "Set up", e.Description)

	_, ok = ix.Find("missing")
	assert.False(t, ok)
}

func TestFirst(t *testing.T) {
	e, ok := decode(t).First()
	require.True(t, ok)
	assert.Equal(t, "installation", e.Slug)

	e, ok = Index{{Section: "Empty"}, {Section: "Next", Children: []Entry{{Slug: "a"}}}}.First()
	require.True(t, ok)
	assert.Equal(t, "a", e.Slug)

	_, ok = Index{}.First()
	assert.False(t, ok)
}

func TestNeighbors(t *testing.T) {
	ix := decode(t)
	section := ix[0].Children
	for i, e := range section {
		prev, next := ix.Neighbors(e.Slug)
		if i == 0 {
			assert.Nil(t, prev, e.Slug)
		} else {
			require.NotNil(t, prev, e.Slug)
			assert.Equal(t, section[i-1].Slug, prev.Slug)
		}
		if i == len(section)-1 {
			assert.Nil(t, next, e.Slug)
		} else {
			require.NotNil(t, next, e.Slug)
			assert.Equal(t, section[i+1].Slug, next.Slug)
		}
	}

	prev, next := ix.Neighbors("cookies")
	assert.Nil(t, prev)
	assert.Nil(t, next)

	prev, next = ix.Neighbors("missing")
	assert.Nil(t, prev)
	assert.Nil(t, next)
}

func TestSidebar(t *testing.T) {
	sb := decode(t).Sidebar("hello-world")
	require.Len(t, sb, 2)
	assert.True(t, sb[0].Active)
	assert.False(t, sb[1].Active)
	assert.Equal(t, SidebarItem{Title: "Install", Slug: "installation"}, sb[0].Items[0])
	assert.Equal(t, SidebarItem{Title: "Hello World", Slug: "hello-world", Active: true}, sb[0].Items[1])
}

func TestBuild(t *testing.T) {
	articles := []*article.Article{
		{Slug: "cookies", FrontMatter: article.FrontMatter{Title: "Cookies", Section: "Plugins", Position: 1}},
		{Slug: "routing", FrontMatter: article.FrontMatter{Title: "Routing", Section: "Getting Started", Position: 2}},
		{Slug: "secret", FrontMatter: article.FrontMatter{Title: "Secret", Section: "Getting Started", Hidden: true}},
		{Slug: "faq", FrontMatter: article.FrontMatter{Title: "FAQ"}},
		{Slug: "installation", FrontMatter: article.FrontMatter{Title: "Installation", ShortTitle: "Install", Section: "Getting Started", Position: 1}},
	}
	ix := Build(articles, []string{"Getting Started"})
	require.Len(t, ix, 3)
	assert.Equal(t, "Getting Started", ix[0].Section)
	assert.Equal(t, "Plugins", ix[1].Section)
	assert.Equal(t, DefaultSection, ix[2].Section)
	assert.Equal(t, []string{"installation", "routing", "cookies", "faq"}, ix.Slugs())
	assert.Equal(t, "FAQ", ix[2].Children[0].ShortTitle)

	b, err := ix.Encode()
	require.NoError(t, err)
	again, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, ix.Slugs(), again.Slugs())
}
