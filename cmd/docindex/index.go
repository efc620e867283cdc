package main

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/ancientlore/docserve/article"
	"github.com/ancientlore/docserve/content"
	"github.com/ancientlore/docserve/index"
)

// build reads the articles of version and returns their index. Articles that
// cannot be parsed or are invalid are left out and returned as problems.
func build(fsys fs.FS, version string, order []string) (index.Index, []error, error) {
	var (
		articles []*article.Article
		problems []error
	)
	err := content.NewDir(fsys).Articles(version, func(slug string, raw []byte) error {
		a, err := article.Parse(version, slug, raw)
		if err == nil {
			err = a.Validate()
		}
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", slug, err))
			return nil
		}
		articles = append(articles, a)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build %s: %w", version, err)
	}
	ix := index.Build(articles, order)
	if ix == nil {
		ix = index.Index{}
	}
	return ix, problems, nil
}

// check compares the index of version with its articles and describes every problem found:
// a missing or invalid index, entries without an article, duplicate entries, invalid
// articles, and visible articles missing from the index.
func check(fsys fs.FS, version string) ([]string, error) {
	dir := content.NewDir(fsys)
	raw, err := fs.ReadFile(fsys, version+"/"+content.IndexFile)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{fmt.Sprintf("%s: no %s", version, content.IndexFile)}, nil
	} else if err != nil {
		return nil, fmt.Errorf("check %s: %w", version, err)
	}
	ix, err := index.Decode(raw)
	if err != nil {
		return []string{fmt.Sprintf("%s: %s", version, err)}, nil
	}

	var (
		problems []string
		articles = make(map[string]*article.Article)
	)
	err = dir.Articles(version, func(slug string, raw []byte) error {
		a, err := article.Parse(version, slug, raw)
		if err == nil {
			err = a.Validate()
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s/%s: %s", version, slug, err))
			return nil
		}
		articles[slug] = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", version, err)
	}

	indexed := make(map[string]bool)
	for _, slug := range ix.Slugs() {
		if indexed[slug] {
			problems = append(problems, fmt.Sprintf("%s/%s: listed more than once", version, slug))
			continue
		}
		indexed[slug] = true
		if _, err := fs.Stat(fsys, version+"/"+slug+".mdx"); err == nil {
			continue
		}
		if _, err := fs.Stat(fsys, version+"/"+slug+".md"); err == nil {
			continue
		}
		problems = append(problems, fmt.Sprintf("%s/%s: indexed but has no article", version, slug))
	}
	for slug, a := range articles {
		if !indexed[slug] && !a.FrontMatter.Hidden {
			problems = append(problems, fmt.Sprintf("%s/%s: not in the index", version, slug))
		}
	}
	sort.Strings(problems)
	return problems, nil
}
