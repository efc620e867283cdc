package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuin/goldmark/ast"
)

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":      "hello-world",
		"Über uns":           "über-uns",
		"API_v2 reference":   "api_v2-reference",
		"  Spaces  ":         "--spaces--",
		"C++ & Go":           "c--go",
		"What's new in 2.0?": "whats-new-in-20",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestHeadingIDs(t *testing.T) {
	ids := newHeadingIDs()
	assert.Equal(t, "intro", string(ids.Generate([]byte("Intro"), ast.KindHeading)))
	assert.Equal(t, "intro-1", string(ids.Generate([]byte("Intro"), ast.KindHeading)))
	ids.Put([]byte("intro-2"))
	assert.Equal(t, "intro-3", string(ids.Generate([]byte("**Intro**"), ast.KindHeading)))
	assert.Equal(t, "heading", string(ids.Generate([]byte("!!!"), ast.KindHeading)))
	assert.Equal(t, "see-the-docs", string(ids.Generate([]byte("See [the docs](https://example.com)"), ast.KindHeading)))
}

func TestPlainText(t *testing.T) {
	in := `<h2 id="x">Hello <code>world</code></h2><script>alert(1)</script><p>Next&amp;last</p>`
	assert.Equal(t, "Hello world Next&last", PlainText(in))
}

func TestPreprocess(t *testing.T) {
	in := "import A from 'a'\r\ntext\r\n~~~~\nexport default x\n~~~\nstill code\n~~~~\nexport const y = 1\n"
	want := "text\n~~~~\nexport default x\n~~~\nstill code\n~~~~\n"
	assert.Equal(t, want, string(Preprocess([]byte(in))))
}

func TestHeadingsFromHTML(t *testing.T) {
	toc, err := headingsFromHTML([]byte(`<h1 id="t">T</h1><h2 id="a">A <em>b</em></h2><h3>no id</h3><div><h3 id="c">C</h3></div>`))
	assert.NoError(t, err)
	assert.Equal(t, []Heading{{ID: "a", Title: "A b", Level: 2}, {ID: "c", Title: "C", Level: 3}}, toc)
}
