/*
Package content reads documentation sources. A Source returns the raw Markdown (or MDX) text of an
article and the JSON metadata index of a version. Versions are release lines, tags or branches, and
slugs identify a single article within a version.

Four sources are provided:

	Dir      a local folder laid out as <version>/<slug>.mdx and <version>/metadata.json
	GitHub   the GitHub contents API, resolving the version as a git ref
	Git      a git repository cloned in memory, resolving the version as a tag or branch
	Bucket   an object store bucket opened with gocloud.dev/blob

Every source reports missing content as ErrNotFound so that callers never see a low-level
"file not found" or HTTP 404 error.
*/
package content

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a version, article or index does not exist.
var ErrNotFound = errors.New("content not found")

// IndexFile is the name of the metadata index within a version.
const IndexFile = "metadata.json"

// Extensions lists the article file extensions in lookup order.
var Extensions = []string{".mdx", ".md"}

// Source provides raw article text and metadata indexes.
type Source interface {
	// ReadArticle returns the raw text of the article slug in version.
	ReadArticle(ctx context.Context, version, slug string) ([]byte, error)
	// ReadIndex returns the raw metadata index JSON of version.
	ReadIndex(ctx context.Context, version string) ([]byte, error)
}

// Versioner is implemented by sources that can list their versions.
type Versioner interface {
	Versions(ctx context.Context) ([]string, error)
}

var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidName reports whether s can be used as a version or slug. It rejects
// anything that could escape the version folder.
func ValidName(s string) bool {
	return nameRegexp.MatchString(s) && !strings.Contains(s, "..")
}

// articlePaths returns the candidate paths for slug below dir.
func articlePaths(dir, slug string) []string {
	p := make([]string, 0, len(Extensions))
	for _, ext := range Extensions {
		p = append(p, path.Join(dir, slug+ext))
	}
	return p
}

// check validates version and, when present, slug.
func check(version string, slug ...string) error {
	if !ValidName(version) {
		return ErrNotFound
	}
	for _, s := range slug {
		if !ValidName(s) {
			return ErrNotFound
		}
	}
	return nil
}
