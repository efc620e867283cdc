/*
Package article parses documentation articles: front matter followed by a Markdown or MDX body.

Front matter may be YAML, delimited by "---", or TOML, delimited by "+++".

	---
	title: Installation
	section: Getting Started
	position: 1
	---
	# Installation
*/
package article

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inful/mdfp"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ancientlore/docserve/content"
)

// FrontMatter holds data scraped from an article.
type FrontMatter struct {
	Title       string `yaml:"title" toml:"title" json:"title"`
	Description string `yaml:"description" toml:"description" json:"description,omitempty"`
	ShortTitle  string `yaml:"shortTitle" toml:"shortTitle" json:"shortTitle,omitempty"` // Title used in the sidebar
	Section     string `yaml:"section" toml:"section" json:"section,omitempty"`
	Position    int    `yaml:"position" toml:"position" json:"position"` // Order within the section
	Stub        bool   `yaml:"stub" toml:"stub" json:"stub,omitempty"`
	ShowToc     bool   `yaml:"showToc" toml:"showToc" json:"showToc"`
	Hidden      bool   `yaml:"hidden" toml:"hidden" json:"hidden,omitempty"`
	AltTitle    string `yaml:"altTitle" toml:"altTitle" json:"altTitle,omitempty"` // Title shown in the page header
}

// formats are the supported front matter formats.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// ParseFrontMatter splits src into its front matter and body. Articles without
// front matter are allowed; ShowToc defaults to true.
func ParseFrontMatter(src []byte) (FrontMatter, []byte, error) {
	fm := FrontMatter{ShowToc: true}
	body, err := frontmatter.Parse(bytes.NewReader(src), &fm, formats...)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("ParseFrontMatter: %w", err)
	}
	return fm, body, nil
}

// Validate checks that the front matter is complete.
func (fm FrontMatter) Validate() error {
	return validation.ValidateStruct(&fm,
		validation.Field(&fm.Title, validation.Required),
		validation.Field(&fm.Position, validation.Min(0)),
	)
}

// Label returns the sidebar label of the article.
func (fm FrontMatter) Label() string {
	if fm.ShortTitle != "" {
		return fm.ShortTitle
	}
	return fm.Title
}

// Heading returns the title shown in the page header.
func (fm FrontMatter) Heading() string {
	if fm.AltTitle != "" {
		return fm.AltTitle
	}
	return fm.Title
}

// Article is a parsed article of a given version.
type Article struct {
	Version     string      `json:"version"`
	Slug        string      `json:"slug"`
	FrontMatter FrontMatter `json:"frontMatter"`
	Body        []byte      `json:"-"`
	Fingerprint string      `json:"fingerprint"`
}

// Parse parses the raw source of the article identified by version and slug.
func Parse(version, slug string, src []byte) (*Article, error) {
	fm, body, err := ParseFrontMatter(src)
	if err != nil {
		return nil, fmt.Errorf("Parse %s/%s: %w", version, slug, err)
	}
	fp, err := fingerprint(fm, body)
	if err != nil {
		return nil, fmt.Errorf("Parse %s/%s: %w", version, slug, err)
	}
	return &Article{
		Version:     version,
		Slug:        slug,
		FrontMatter: fm,
		Body:        body,
		Fingerprint: fp,
	}, nil
}

// Validate checks the slug and front matter of the article.
func (a *Article) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Slug, validation.Required, validation.By(validName)),
		validation.Field(&a.Version, validation.Required, validation.By(validName)),
		validation.Field(&a.FrontMatter),
	)
}

func validName(value any) error {
	s, _ := value.(string)
	if !content.ValidName(s) {
		return validation.NewError("validation_name", "must contain only letters, digits, '.', '_' or '-'")
	}
	return nil
}

// fingerprint hashes the canonical YAML form of the front matter together with the body.
func fingerprint(fm FrontMatter, body []byte) (string, error) {
	b, err := yaml.Marshal(&fm)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(b), "\n"), string(body)), nil
}
