package index

import (
	"sort"

	"github.com/ancientlore/docserve/article"
)

// DefaultSection holds articles whose front matter names no section.
const DefaultSection = "General"

// Build creates an index from article front matter. Hidden articles are left out.
// Sections named in order come first, in that order; the others follow in order
// of first appearance. Articles are ordered by position, then title.
func Build(articles []*article.Article, order []string) Index {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		if _, ok := rank[name]; !ok {
			rank[name] = i
		}
	}

	var (
		ix       Index
		sections = make(map[string]int)
	)
	for _, a := range articles {
		fm := a.FrontMatter
		if fm.Hidden {
			continue
		}
		name := fm.Section
		if name == "" {
			name = DefaultSection
		}
		i, ok := sections[name]
		if !ok {
			i = len(ix)
			sections[name] = i
			ix = append(ix, Section{Section: name})
		}
		shortTitle := fm.ShortTitle
		if shortTitle == "" {
			shortTitle = fm.Title
		}
		ix[i].Children = append(ix[i].Children, Entry{
			Title:       fm.Title,
			Description: fm.Description,
			ShortTitle:  shortTitle,
			Slug:        a.Slug,
			Position:    fm.Position,
			Section:     name,
		})
	}

	sort.SliceStable(ix, func(i, j int) bool {
		ri, iok := rank[ix[i].Section]
		rj, jok := rank[ix[j].Section]
		switch {
		case iok && jok:
			return ri < rj
		default:
			return iok && !jok
		}
	})
	for _, s := range ix {
		sort.SliceStable(s.Children, func(i, j int) bool {
			a, b := s.Children[i], s.Children[j]
			if a.Position != b.Position {
				return a.Position < b.Position
			}
			return a.Title < b.Title
		})
	}
	return ix
}
