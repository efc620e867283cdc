package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestContainerNodes(t *testing.T) {
	src := []byte(":::note\nOuter\n:::danger[Hot]\nInner\n:::\n:::\n\n:::tabs\n```go\nx := 1\n```\n:::\n")
	md := goldmark.New(goldmark.WithExtensions(&containers{}))
	doc := md.Parser().Parse(text.NewReader(src))

	var found []*Container
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if c, ok := n.(*Container); ok && entering {
			found = append(found, c)
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	require.Len(t, found, 3)

	assert.Equal(t, TypeNote, found[0].Variant)
	assert.Equal(t, "Note", found[0].Title)
	assert.Equal(t, TypeDanger, found[1].Variant)
	assert.Equal(t, "Hot", found[1].Title)
	assert.Same(t, found[0], found[1].Parent())
	assert.Equal(t, TypeTabs, found[2].Variant)
	for _, c := range found {
		assert.Equal(t, KindContainer, c.Kind())
		assert.Equal(t, ast.TypeBlock, c.Type())
	}
}
