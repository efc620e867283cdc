/*
Package view renders documentation pages with html/template.

Default templates and static assets are embedded. A template directory may override any of
the named templates:

	header    opening markup shared by all pages
	footer    closing markup shared by all pages
	page      a documentation article with sidebar, table of contents and pager
	notfound  the 404 page; receives Status and StatusText
	error     the upstream error page; receives Message

Templates receive a *Data and may use these helper functions:

	docpath(version, slug string) string
		URL path of an article, or of a version root when slug is empty
	other(theme) theme
		The theme to switch to
	now() time.Time
		The current time
	trimprefix, trimsuffix, trimspace
		The strings package functions of the same name

Hidden files (those starting with ".") in the template directory are ignored.
*/
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/session"
	"github.com/ancientlore/docserve/site"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

//go:embed static
var staticFiles embed.FS

// Static returns the embedded static assets.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Search holds the Algolia DocSearch settings.
type Search struct {
	AppID     string
	APIKey    string
	IndexName string
}

// Enabled reports whether search is configured.
func (s Search) Enabled() bool {
	return s.AppID != "" && s.APIKey != "" && s.IndexName != ""
}

// Data is passed to templates.
type Data struct {
	SiteName    string
	Title       string
	Description string
	Path        string        // path of the request, used to return after a theme change
	Theme       session.Theme // current theme
	Version     string
	Versions    []string
	Search      Search
	Page        *site.Page // set for the page template
	Status      int        // set for the notfound template
	StatusText  string
	Message     string // set for the error template
}

// Config configures Views.
type Config struct {
	Dir      string // optional directory of templates overriding the defaults
	SiteName string
	Search   Search
	Logger   *slog.Logger
}

// Views holds the parsed templates.
type Views struct {
	cfg        Config
	log        *slog.Logger
	mu         sync.RWMutex
	tpl        *template.Template
	generation atomic.Uint64
}

// New creates Views and loads the templates.
func New(cfg Config) (*Views, error) {
	if cfg.SiteName == "" {
		cfg.SiteName = "Documentation"
	}
	v := &Views{cfg: cfg, log: cfg.Logger}
	if v.log == nil {
		v.log = slog.Default()
	}
	if _, err := v.Load(); err != nil {
		return nil, err
	}
	return v, nil
}

// Dir returns the template override directory, if any.
func (v *Views) Dir() string {
	return v.cfg.Dir
}

// Generation is incremented every time the templates are loaded.
func (v *Views) Generation() uint64 {
	return v.generation.Load()
}

// Data returns template data filled with the site settings.
func (v *Views) Data(theme session.Theme) *Data {
	if theme == "" {
		theme = session.Light
	}
	return &Data{
		SiteName: v.cfg.SiteName,
		Theme:    theme,
		Search:   v.cfg.Search,
	}
}

// templates returns the current templates.
func (v *Views) templates() *template.Template {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tpl
}

// Defined returns the names of the defined templates.
func (v *Views) Defined() string {
	return v.templates().DefinedTemplates()
}

// Load parses the default templates and then the override directory on top of them,
// returning true if custom templates were found. On error the previous templates stay in use.
func (v *Views) Load() (bool, error) {
	funcMap := template.FuncMap{
		"docpath":    site.Path,
		"other":      other,
		"now":        time.Now,
		"trimsuffix": strings.TrimSuffix,
		"trimprefix": strings.TrimPrefix,
		"trimspace":  strings.TrimSpace,
	}
	tpl, err := template.New("docserve").Funcs(funcMap).ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return false, fmt.Errorf("Load: %w", err)
	}
	custom := false
	if v.cfg.Dir != "" {
		fi, err := os.Stat(v.cfg.Dir)
		switch {
		case errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.IsDir()):
			v.log.Warn("No template folder found; using default templates", logattr.Path(v.cfg.Dir))
		case err != nil:
			return false, fmt.Errorf("Load: %w", err)
		default:
			custom, err = parseDir(tpl, os.DirFS(v.cfg.Dir))
			if err != nil {
				return custom, fmt.Errorf("Load: %w", err)
			}
		}
	}
	v.mu.Lock()
	v.tpl = tpl
	v.mu.Unlock()
	v.generation.Add(1)
	return custom, nil
}

// parseDir parses the visible *.html files of fsys into tpl.
func parseDir(tpl *template.Template, fsys fs.FS) (bool, error) {
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return false, err
	}
	found := false
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return found, err
		}
		if _, err := tpl.New(name).Parse(string(b)); err != nil {
			return found, err
		}
		found = true
	}
	return found, nil
}

// Execute renders the named template into w. The output is buffered so that
// a failing template writes nothing.
func (v *Views) Execute(w io.Writer, name string, d *Data) error {
	var buf bytes.Buffer
	if err := v.templates().ExecuteTemplate(&buf, name, d); err != nil {
		return fmt.Errorf("Execute: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("Execute: %w", err)
	}
	return nil
}

// other returns the theme to switch to from t.
func other(t session.Theme) session.Theme {
	if t == session.Dark {
		return session.Light
	}
	return session.Dark
}
