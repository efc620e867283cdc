package markdown

import (
	"bytes"
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

// Container types.
const (
	TypeNote    = "note"
	TypeTip     = "tip"
	TypeInfo    = "info"
	TypeWarning = "warning"
	TypeDanger  = "danger"
	TypeTabs    = "tabs"
)

var containerTitles = map[string]string{
	TypeNote:    "Note",
	TypeTip:     "Tip",
	TypeInfo:    "Info",
	TypeWarning: "Warning",
	TypeDanger:  "Danger",
	TypeTabs:    "",
}

// KindContainer is the NodeKind of a Container.
var KindContainer = ast.NewNodeKind("Container")

var _ ast.Node = (*Container)(nil)

// Container is a block fenced by ":::type [title]" and ":::".
// Callouts and tabbed code blocks are containers.
type Container struct {
	ast.BaseBlock
	Variant string // note, tip, info, warning, danger or tabs
	Title   string
}

// Kind implements ast.Node.
func (n *Container) Kind() ast.NodeKind {
	return KindContainer
}

// Dump implements ast.Node.
func (n *Container) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Variant": n.Variant, "Title": n.Title}, nil)
}

// parseContainerOpening parses ":::type title" or ":::type[title]".
func parseContainerOpening(line []byte) (typ, title string, ok bool) {
	s := strings.TrimSpace(string(line))
	if !strings.HasPrefix(s, ":::") {
		return "", "", false
	}
	s = strings.TrimLeft(s[3:], " \t")
	i := 0
	for i < len(s) && s[i] >= 'a' && s[i] <= 'z' {
		i++
	}
	typ, rest := s[:i], strings.TrimSpace(s[i:])
	if _, known := containerTitles[typ]; !known {
		return "", "", false
	}
	if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}
	return typ, rest, true
}

func isContainerClosing(line []byte) bool {
	return string(bytes.TrimSpace(line)) == ":::"
}

type containerParser struct{}

func (b *containerParser) Trigger() []byte {
	return []byte{':'}
}

func (b *containerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	typ, title, ok := parseContainerOpening(line[pos:])
	if !ok {
		return nil, parser.NoChildren
	}
	if title == "" {
		title = containerTitles[typ]
	}
	advanceLine(reader, line, segment)
	return &Container{Variant: typ, Title: title}, parser.HasChildren
}

func (b *containerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if !isContainerClosing(line) || nestedOpen(node, pc) {
		return parser.Continue | parser.HasChildren
	}
	advanceLine(reader, line, segment)
	return parser.Close
}

func (b *containerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *containerParser) CanInterruptParagraph() bool {
	return true
}

func (b *containerParser) CanAcceptIndentedLine() bool {
	return false
}

// advanceLine moves the reader to the newline of the current line.
func advanceLine(reader text.Reader, line []byte, segment text.Segment) {
	newline := 1
	if len(line) == 0 || line[len(line)-1] != '\n' {
		newline = 0
	}
	reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
}

// nestedOpen reports whether a block opened inside node still needs the closing
// line: an inner container or a fenced code block.
func nestedOpen(node ast.Node, pc parser.Context) bool {
	for _, b := range pc.OpenedBlocks() {
		if b.Node == node {
			continue
		}
		for p := b.Node.Parent(); p != nil; p = p.Parent() {
			if p != node {
				continue
			}
			switch b.Node.Kind() {
			case KindContainer, ast.KindFencedCodeBlock:
				return true
			}
		}
	}
	return false
}

type containerRenderer struct{}

func (r *containerRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindContainer, r.renderContainer)
}

func (r *containerRenderer) renderContainer(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Container)
	if n.Variant == TypeTabs {
		return r.renderTabs(w, source, n, entering)
	}
	if entering {
		fmt.Fprintf(w, `<aside class="callout callout-%s" role="note">`, n.Variant)
		if n.Title != "" {
			fmt.Fprintf(w, `<p class="callout-title">%s</p>`, html.EscapeString(n.Title))
		}
		_, _ = w.WriteString(`<div class="callout-body">` + "\n")
	} else {
		_, _ = w.WriteString("</div></aside>\n")
	}
	return ast.WalkContinue, nil
}

// renderTabs writes one tab button per fenced code block; the panels are the
// code blocks themselves, in order.
func (r *containerRenderer) renderTabs(w util.BufWriter, source []byte, n *Container, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="tabs" data-tabs><div class="tab-list" role="tablist">`)
	i := 0
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		code, ok := c.(*ast.FencedCodeBlock)
		if !ok {
			continue
		}
		selected := "false"
		if i == 0 {
			selected = "true"
		}
		fmt.Fprintf(w, `<button type="button" class="tab" role="tab" aria-selected="%s" data-tab="%d">%s</button>`,
			selected, i, html.EscapeString(tabLabel(code, source, i)))
		i++
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkContinue, nil
}

// tabLabel returns the title attribute of a fenced code block, its language, or a numbered label.
func tabLabel(code *ast.FencedCodeBlock, source []byte, i int) string {
	if code.Info != nil {
		info := code.Info.Segment.Value(source)
		if idx := bytes.IndexByte(info, '{'); idx >= 0 {
			if attrs, ok := parser.ParseAttributes(text.NewReader(info[idx:])); ok {
				for _, attr := range attrs {
					if v, ok := attr.Value.([]byte); ok && string(attr.Name) == "title" {
						return string(v)
					}
				}
			}
		}
	}
	if lang := code.Language(source); len(lang) > 0 {
		return string(lang)
	}
	return fmt.Sprintf("Tab %d", i+1)
}

// containers is the extension for callouts and tabs.
type containers struct{}

func (e *containers) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&containerParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&containerRenderer{}, 500),
	))
}
