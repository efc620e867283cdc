package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancientlore/docserve/index"
)

func docs() fstest.MapFS {
	return fstest.MapFS{
		"main/install.mdx": {Data: []byte("---\ntitle: Installation\nshortTitle: Install\nsection: Getting Started\nposition: 1\n---\n# Install\n")},
		"main/routing.md":  {Data: []byte("---\ntitle: Routing\nsection: Guides\nposition: 2\n---\nRoutes\n")},
		"main/hooks.mdx":   {Data: []byte("---\ntitle: Hooks\nsection: Guides\nposition: 1\n---\nHooks\n")},
		"main/draft.mdx":   {Data: []byte("---\ntitle: Draft\nhidden: true\n---\nLater\n")},
		"main/broken.mdx":  {Data: []byte("---\nposition: 3\n---\nNo title\n")},
		"main/notes.txt":   {Data: []byte("ignored")},
	}
}

func TestBuild(t *testing.T) {
	ix, problems, err := build(docs(), "main", []string{"Guides"})
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Error(), "broken")

	require.Len(t, ix, 2)
	assert.Equal(t, "Guides", ix[0].Section)
	assert.Equal(t, []string{"hooks", "routing", "install"}, ix.Slugs())
	assert.Equal(t, "Install", ix[1].Children[0].ShortTitle)
	assert.Equal(t, "Routing", ix[0].Children[1].ShortTitle)

	b, err := ix.Encode()
	require.NoError(t, err)
	decoded, err := index.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, ix.Slugs(), decoded.Slugs())
}

func TestBuildEmptyVersion(t *testing.T) {
	fsys := fstest.MapFS{"empty/readme.txt": {Data: []byte("x")}}
	ix, problems, err := build(fsys, "empty", nil)
	require.NoError(t, err)
	assert.Empty(t, problems)
	b, err := ix.Encode()
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))

	_, _, err = build(fsys, "missing", nil)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	fsys := docs()
	problems, err := check(fsys, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"main: no metadata.json"}, problems)

	fsys["main/metadata.json"] = &fstest.MapFile{Data: []byte(`[
  {"section": "Guides", "children": [
    {"title": "Routing", "shortTitle": "Routing", "slug": "routing", "position": 1},
    {"title": "Gone", "shortTitle": "Gone", "slug": "gone", "position": 2},
    {"title": "Routing", "shortTitle": "Routing", "slug": "routing", "position": 3}
  ]}
]`)}
	problems, err = check(fsys, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"main/broken: " + brokenError(t),
		"main/gone: indexed but has no article",
		"main/hooks: not in the index",
		"main/install: not in the index",
		"main/routing: listed more than once",
	}, problems)

	fsys["main/metadata.json"] = &fstest.MapFile{Data: []byte(`{"section": "x"}`)}
	problems, err = check(fsys, "main")
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "invalid metadata index")
}

func brokenError(t *testing.T) string {
	t.Helper()
	_, problems, err := build(fstest.MapFS{"main/broken.mdx": docs()["main/broken.mdx"]}, "main", nil)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	// build prefixes the slug; check prefixes version and slug.
	return problems[0].Error()[len("broken: "):]
}

func TestCommands(t *testing.T) {
	root := t.TempDir()
	for name, f := range docs() {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o644))
	}
	var logs bytes.Buffer
	g := &Global{Logger: slog.New(slog.NewTextHandler(&logs, nil))}

	run := func(args ...string) error {
		var cli CLI
		parser, err := kong.New(&cli, kong.Name("docindex"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
		require.NoError(t, err)
		ctx, err := parser.Parse(append([]string{"--root", root}, args...))
		require.NoError(t, err)
		return ctx.Run(g, &cli)
	}

	require.NoError(t, run("build", "main", "--order", "Getting Started,Guides"))
	b, err := os.ReadFile(filepath.Join(root, "main", "metadata.json"))
	require.NoError(t, err)
	ix, err := index.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"install", "hooks", "routing"}, ix.Slugs())
	assert.Contains(t, logs.String(), "Skipped article")

	err = run("check", "main")
	assert.ErrorIs(t, err, errProblems)
	assert.Contains(t, logs.String(), "main/broken")

	require.NoError(t, os.Remove(filepath.Join(root, "main", "broken.mdx")))
	assert.NoError(t, run("check"))
}
