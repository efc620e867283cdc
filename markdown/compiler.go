/*
Package markdown compiles documentation article bodies to HTML. Front matter is
parsed by the article package before the body reaches the Compiler.

A Compiler is configured once and is safe for concurrent use. The default engine is
goldmark with GitHub Flavored Markdown, footnotes, definition lists, emoji shortcodes,
heading anchors and syntax highlighting, plus these components:

	:::warning Breaking change
	Callouts are note, tip, info, warning or danger.
	:::

	:::tabs
	```go {title="main.go"}
	fmt.Println("tabbed code")
	```
	:::

	[Middleware](tooltip "A function wrapping a handler")

The legacy engine is blackfriday.
*/
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/russross/blackfriday/v2"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Engines.
const (
	EngineGoldmark    = "goldmark"
	EngineBlackfriday = "blackfriday"
)

// DefaultStyle is the chroma style used for syntax highlighting.
const DefaultStyle = "github"

// ErrUnknownEngine is returned by New for an unsupported engine name.
var ErrUnknownEngine = errors.New("unknown markdown engine")

// Options configure a Compiler.
type Options struct {
	Engine        string // goldmark (default) or blackfriday
	Style         string // chroma style name
	GuessLanguage bool   // highlight code blocks without a language
}

// Compiler converts Markdown and MDX to HTML.
type Compiler struct {
	engine string
	style  string
	md     goldmark.Markdown
}

// New creates a Compiler.
func New(opts Options) (*Compiler, error) {
	c := &Compiler{engine: opts.Engine, style: opts.Style}
	if c.engine == "" {
		c.engine = EngineGoldmark
	}
	if c.style == "" {
		c.style = DefaultStyle
	}
	switch c.engine {
	case EngineGoldmark:
		c.md = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				extension.DefinitionList,
				emoji.New(emoji.WithRenderingMethod(emoji.Unicode)),
				highlighting.NewHighlighting(
					highlighting.WithStyle(c.style),
					highlighting.WithGuessLanguage(opts.GuessLanguage),
					highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
					highlighting.WithWrapperRenderer(codeWrapper),
				),
				&containers{},
				&components{},
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithAttribute(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		)
	case EngineBlackfriday:
	default:
		return nil, fmt.Errorf("New: %w %q", ErrUnknownEngine, c.engine)
	}
	return c, nil
}

// Engine returns the name of the engine in use.
func (c *Compiler) Engine() string {
	return c.engine
}

// Render converts a body without front matter to HTML and returns its table of contents.
func (c *Compiler) Render(ctx context.Context, body []byte) (template.HTML, []Heading, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	type result struct {
		html []byte
		toc  []Heading
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var r result
		r.html, r.toc, r.err = c.render(Preprocess(body))
		done <- r
	}()

	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", nil, fmt.Errorf("Render: %w", r.err)
		}
		return template.HTML(r.html), r.toc, nil
	}
}

func (c *Compiler) render(body []byte) ([]byte, []Heading, error) {
	if c.engine == EngineBlackfriday {
		out := blackfriday.Run(body, blackfriday.WithExtensions(
			blackfriday.CommonExtensions|blackfriday.Footnotes|blackfriday.AutoHeadingIDs))
		toc, err := headingsFromHTML(out)
		return out, toc, err
	}
	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := c.md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))
	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, body, doc); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), tocFrom(pc), nil
}

// CSS writes the stylesheet of the highlighting style.
func (c *Compiler) CSS(w io.Writer) error {
	style := styles.Get(c.style)
	if style == nil {
		style = styles.Fallback
	}
	return chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(w, style)
}

// codeWrapper wraps code blocks in a container with a copy-to-clipboard button.
func codeWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	if !entering {
		if !ctx.Highlighted() {
			_, _ = w.WriteString("</code></pre>")
		}
		_, _ = w.WriteString("</div>\n")
		return
	}
	lang, _ := ctx.Language()
	_, _ = w.WriteString(`<div class="code-block"`)
	if len(lang) > 0 {
		fmt.Fprintf(w, ` data-lang="%s"`, html.EscapeString(string(lang)))
	}
	if attrs := ctx.Attributes(); attrs != nil {
		if v, ok := attrs.GetString("title"); ok {
			if title, ok := v.([]byte); ok {
				fmt.Fprintf(w, ` data-title="%s"`, html.EscapeString(string(title)))
			}
		}
	}
	_, _ = w.WriteString(`><button type="button" class="copy" aria-label="Copy code">Copy</button>`)
	if !ctx.Highlighted() {
		_, _ = w.WriteString("<pre><code")
		if len(lang) > 0 {
			fmt.Fprintf(w, ` class="language-%s"`, html.EscapeString(string(lang)))
		}
		_ = w.WriteByte('>')
	}
}
