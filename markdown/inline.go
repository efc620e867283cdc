package markdown

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// tooltipDestination marks a link as a tooltip: [text](tooltip "explanation").
const tooltipDestination = "tooltip"

// KindTooltip is the NodeKind of a Tooltip.
var KindTooltip = ast.NewNodeKind("Tooltip")

// Tooltip is inline text with an explanation shown on hover or focus.
type Tooltip struct {
	ast.BaseInline
	Tip string
}

// Kind implements ast.Node.
func (n *Tooltip) Kind() ast.NodeKind {
	return KindTooltip
}

// Dump implements ast.Node.
func (n *Tooltip) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Tip": n.Tip}, nil)
}

// Heading is an entry of the table of contents.
type Heading struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

var tocKey = parser.NewContextKey()

// tocFrom returns the headings collected while parsing with pc.
func tocFrom(pc parser.Context) []Heading {
	toc, _ := pc.Get(tocKey).([]Heading)
	return toc
}

// documentTransformer turns tooltip links into Tooltip nodes, records h2 and h3
// headings in the table of contents and appends an anchor link to h2 through h4.
type documentTransformer struct{}

func (t *documentTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var (
		links    []*ast.Link
		headings []*ast.Heading
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Link:
			if string(n.Destination) == tooltipDestination {
				links = append(links, n)
			}
		case *ast.Heading:
			headings = append(headings, n)
		}
		return ast.WalkContinue, nil
	})

	for _, link := range links {
		tip := &Tooltip{Tip: string(link.Title)}
		for c := link.FirstChild(); c != nil; {
			next := c.NextSibling()
			tip.AppendChild(tip, c)
			c = next
		}
		link.Parent().ReplaceChild(link.Parent(), link, tip)
	}

	var toc []Heading
	for _, h := range headings {
		v, ok := h.AttributeString("id")
		if !ok {
			continue
		}
		id, ok := v.([]byte)
		if !ok || h.Level < 2 || h.Level > 4 {
			continue
		}
		if h.Level <= 3 {
			toc = append(toc, Heading{ID: string(id), Title: nodeText(h, source), Level: h.Level})
		}
		anchor := ast.NewLink()
		anchor.Destination = append([]byte("#"), id...)
		anchor.SetAttributeString("class", []byte("anchor"))
		anchor.SetAttributeString("title", []byte("Permalink"))
		anchor.AppendChild(anchor, ast.NewString([]byte("#")))
		h.AppendChild(h, anchor)
	}
	pc.Set(tocKey, toc)
}

// nodeText returns the plain text content of n.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
			if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

type tooltipRenderer struct{}

func (r *tooltipRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTooltip, r.renderTooltip)
}

func (r *tooltipRenderer) renderTooltip(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Tooltip)
	if entering {
		fmt.Fprintf(w, `<span class="tooltip" tabindex="0" data-tooltip="%s">`, html.EscapeString(n.Tip))
	} else {
		_, _ = w.WriteString("</span>")
	}
	return ast.WalkContinue, nil
}

// components is the extension for tooltips, heading anchors and the table of contents.
type components struct{}

func (e *components) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&documentTransformer{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&tooltipRenderer{}, 500),
	))
}
