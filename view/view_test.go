package view

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancientlore/docserve/index"
	"github.com/ancientlore/docserve/markdown"
	"github.com/ancientlore/docserve/session"
	"github.com/ancientlore/docserve/site"
)

func testPage() *site.Page {
	return &site.Page{
		Version: "main",
		Slug:    "routing",
		Title:   "Routing",
		HTML:    template.HTML(`<h2 id="params">Params</h2><p>Body</p>`),
		TOC:     []markdown.Heading{{ID: "params", Title: "Params", Level: 2}},
		Sidebar: []index.SidebarSection{{
			Title:  "Getting Started",
			Active: true,
			Items: []index.SidebarItem{
				{Title: "Install", Slug: "installation"},
				{Title: "Routing", Slug: "routing", Active: true},
			},
		}},
		Prev: &index.Entry{Title: "Installation", ShortTitle: "Install", Slug: "installation"},
	}
}

func TestExecutePage(t *testing.T) {
	v, err := New(Config{SiteName: "Plugin Docs", Search: Search{AppID: "APP", APIKey: "KEY", IndexName: "docs"}})
	require.NoError(t, err)
	assert.Contains(t, v.Defined(), `"page"`)

	d := v.Data(session.Dark)
	d.Title = "Routing"
	d.Path = "/docs/main/routing"
	d.Version = "main"
	d.Versions = []string{"main", "v1"}
	d.Page = testPage()

	var buf bytes.Buffer
	require.NoError(t, v.Execute(&buf, "page", d))
	out := buf.String()
	assert.Contains(t, out, `<html lang="en" data-theme="dark">`)
	assert.Contains(t, out, `<title>Routing | Plugin Docs</title>`)
	assert.Contains(t, out, `<h2 id="params">Params</h2>`)
	assert.Contains(t, out, `href="/docs/main/routing" class="active" aria-current="page"`)
	assert.Contains(t, out, `<a class="prev" rel="prev" href="/docs/main/installation"><span>Previous</span> Install</a>`)
	assert.NotContains(t, out, `class="next"`)
	assert.Contains(t, out, `<a href="#params" data-toc="params">Params</a>`)
	assert.Contains(t, out, `<option value="/docs/v1">v1</option>`)
	assert.Contains(t, out, `<option value="/docs/main" selected>main</option>`)
	assert.Contains(t, out, `data-app-id="APP"`)
	assert.Contains(t, out, `name="theme" value="light"`)
	assert.Contains(t, out, `name="redirectTo" value="/docs/main/routing"`)
}

func TestExecuteStatusPages(t *testing.T) {
	v, err := New(Config{})
	require.NoError(t, err)

	d := v.Data("")
	assert.Equal(t, session.Light, d.Theme)
	d.Status = 404
	d.StatusText = "Not Found"
	var buf bytes.Buffer
	require.NoError(t, v.Execute(&buf, "notfound", d))
	assert.Contains(t, buf.String(), "<h1>404</h1>")
	assert.Contains(t, buf.String(), "<p>Not Found</p>")
	assert.NotContains(t, buf.String(), "docsearch")

	d = v.Data(session.Light)
	d.Message = "fetch index: <connection refused>"
	buf.Reset()
	require.NoError(t, v.Execute(&buf, "error", d))
	assert.Contains(t, buf.String(), `<p class="message">fetch index: &lt;connection refused&gt;</p>`)

	buf.Reset()
	assert.Error(t, v.Execute(&buf, "missing", d))
	assert.Zero(t, buf.Len())
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notfound.html"), []byte(`{{define "notfound"}}custom {{.Status}}{{end}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".draft.html"), []byte(`{{define "notfound"}}draft{{end}}`), 0o644))

	v, err := New(Config{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, v.Dir())

	var buf bytes.Buffer
	require.NoError(t, v.Execute(&buf, "notfound", &Data{Status: 404}))
	assert.Equal(t, "custom 404", buf.String())

	// A broken template keeps the previous ones.
	g := v.Generation()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notfound.html"), []byte(`{{define "notfound"}}{{.Status`), 0o644))
	_, err = v.Load()
	assert.Error(t, err)
	assert.Equal(t, g, v.Generation())
	buf.Reset()
	require.NoError(t, v.Execute(&buf, "notfound", &Data{Status: 404}))
	assert.Equal(t, "custom 404", buf.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notfound.html"), []byte(`{{define "notfound"}}new {{.Status}}{{end}}`), 0o644))
	custom, err := v.Load()
	require.NoError(t, err)
	assert.True(t, custom)
	buf.Reset()
	require.NoError(t, v.Execute(&buf, "notfound", &Data{Status: 404}))
	assert.Equal(t, "new 404", buf.String())
}

func TestMissingOverrideDir(t *testing.T) {
	v, err := New(Config{Dir: filepath.Join(t.TempDir(), "nope")})
	require.NoError(t, err)
	custom, err := v.Load()
	require.NoError(t, err)
	assert.False(t, custom)
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	write := func(s string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "x.html"), []byte(`{{define "x"}}`+s+`{{.Message}}{{end}}`), 0o644))
	}
	write("a:")
	v, err := New(Config{Dir: dir})
	require.NoError(t, err)
	c := NewCache(v, nil)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, c.Execute(ctx, &buf, "x", "k1", &Data{Message: "one"}))
	assert.Equal(t, "a:one", buf.String())

	buf.Reset()
	require.NoError(t, c.Execute(ctx, &buf, "x", "k1", &Data{Message: "two"}))
	assert.Equal(t, "a:one", buf.String())

	buf.Reset()
	require.NoError(t, c.Execute(ctx, &buf, "x", "k2", &Data{Message: "two"}))
	assert.Equal(t, "a:two", buf.String())

	write("b:")
	_, err = v.Load()
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, c.Execute(ctx, &buf, "x", "k1", &Data{Message: "three"}))
	assert.Equal(t, "b:three", buf.String())
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"site.css", "site.js", "favicon.svg"} {
		b, err := fs.ReadFile(Static(), name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, b, name)
	}
}

func TestSearchEnabled(t *testing.T) {
	assert.False(t, Search{}.Enabled())
	assert.False(t, Search{AppID: "a", APIKey: "b"}.Enabled())
	assert.True(t, Search{AppID: "a", APIKey: "b", IndexName: "c"}.Enabled())
}
