/*
Package index reads and builds the metadata index of a documentation version:
an ordered list of sections, each holding articles ordered by position.

	[
	  {
	    "section": "Getting Started",
	    "children": [
	      {"title": "Installation", "shortTitle": "Install", "slug": "installation", "position": 1}
	    ]
	  }
	]
*/
package index

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalid is returned when an index does not match the schema.
var ErrInvalid = errors.New("invalid metadata index")

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("index.schema.json", schemaJSON)

// Entry is an article in the index.
type Entry struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ShortTitle  string `json:"shortTitle"`
	Slug        string `json:"slug"`
	Position    int    `json:"position"`
	Section     string `json:"-"`
}

// Label returns the text used in navigation.
func (e Entry) Label() string {
	if e.ShortTitle != "" {
		return e.ShortTitle
	}
	return e.Title
}

// Section is a named group of articles.
type Section struct {
	Section  string  `json:"section"`
	Children []Entry `json:"children"`
}

// Index is the metadata index of one version.
type Index []Section

// Decode validates and parses a metadata index. Children are ordered by position.
func Decode(b []byte) (Index, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("Decode: %w: %w", ErrInvalid, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("Decode: %w: %w", ErrInvalid, err)
	}
	var ix Index
	if err := json.Unmarshal(b, &ix); err != nil {
		return nil, fmt.Errorf("Decode: %w: %w", ErrInvalid, err)
	}
	ix.normalize()
	return ix, nil
}

// Encode writes the index as indented JSON.
func (ix Index) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ix); err != nil {
		return nil, fmt.Errorf("Encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (ix Index) normalize() {
	for i := range ix {
		sort.SliceStable(ix[i].Children, func(a, b int) bool {
			return ix[i].Children[a].Position < ix[i].Children[b].Position
		})
		for j := range ix[i].Children {
			ix[i].Children[j].Section = ix[i].Section
		}
	}
}

// Find returns the entry for slug.
func (ix Index) Find(slug string) (Entry, bool) {
	for _, s := range ix {
		for _, e := range s.Children {
			if e.Slug == slug {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// First returns the article with the lowest position in the first section that has articles.
func (ix Index) First() (Entry, bool) {
	for _, s := range ix {
		if len(s.Children) > 0 {
			return s.Children[0], true
		}
	}
	return Entry{}, false
}

// Neighbors returns the articles before and after slug within its section.
// Either is nil at the boundaries of the section.
func (ix Index) Neighbors(slug string) (prev, next *Entry) {
	for _, s := range ix {
		for i := range s.Children {
			if s.Children[i].Slug != slug {
				continue
			}
			if i > 0 {
				p := s.Children[i-1]
				prev = &p
			}
			if i < len(s.Children)-1 {
				n := s.Children[i+1]
				next = &n
			}
			return prev, next
		}
	}
	return nil, nil
}

// Slugs returns the slugs of all articles in index order.
func (ix Index) Slugs() []string {
	var slugs []string
	for _, s := range ix {
		for _, e := range s.Children {
			slugs = append(slugs, e.Slug)
		}
	}
	return slugs
}

// Len returns the number of articles.
func (ix Index) Len() int {
	n := 0
	for _, s := range ix {
		n += len(s.Children)
	}
	return n
}
