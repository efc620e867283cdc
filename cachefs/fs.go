/*
Package cachefs caches the static assets of the site (stylesheets, scripts, images) in memory,
using groupcache through github.com/ancientlore/cachefs.

	assets := cachefs.New(view.Static(), &cachefs.Config{GroupName: "static", SizeInBytes: 4 << 20, Duration: time.Hour})
	http.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))

Hidden files (any path element starting with ".") are never served.
*/
package cachefs

import (
	"io/fs"
	"strings"

	cfs "github.com/ancientlore/cachefs"
)

// Config stores the configuration settings of your cache.
type Config = cfs.Config

// New creates a new cached FS around innerFS using groupcache with the given
// configuration. The returned FS is read-only and hides dot files. If config
// is nil, it defaults to a 1MB cache using a random GUID as a name.
func New(innerFS fs.FS, config *Config) fs.FS {
	return hidingFS{cfs.New(innerFS, config)}
}

// hidingFS rejects names with a path element starting with a period.
type hidingFS struct {
	fs.FS
}

// Open opens the named file unless it is hidden.
func (h hidingFS) Open(name string) (fs.File, error) {
	if containsSpecialFile(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return h.FS.Open(name)
}

// containsSpecialFile reports whether name contains a path element starting with a period.
// The name is assumed to be a delimited by forward slashes, as guaranteed by the fs.FS interface.
func containsSpecialFile(name string) bool {
	if name == "." {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
