package web

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/site"
	"github.com/ancientlore/docserve/view"
)

// handleDocs resolves a documentation request to a redirect or a page.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.cfg.Site.Resolve(ctx, chi.URLParam(r, "version"), chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}
	page, err := s.cfg.Site.Page(ctx, res.Version, res.Slug)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	d := s.data(r)
	d.Title = page.Title
	d.Description = page.FrontMatter.Description
	d.Version = page.Version
	d.Page = page
	if s.cfg.Cache == nil {
		s.render(w, r, http.StatusOK, "page", d)
		return
	}
	key := strings.Join([]string{
		page.Version, page.Slug, page.Fingerprint, d.Theme.String(),
		strings.Join(d.Versions, ","),
		strconv.FormatUint(s.cfg.Generation(), 10),
	}, "|")
	var buf bytes.Buffer
	if err := s.cfg.Cache.Execute(ctx, &buf, "page", key, d); err != nil {
		s.log.ErrorContext(ctx, "Cannot render page", logattr.Template("page"), logattr.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// handlePage returns the page data as JSON.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	version, slug := chi.URLParam(r, "version"), chi.URLParam(r, "slug")
	if canonical, ok := s.cfg.Site.Canonical(version); ok {
		http.Redirect(w, r, "/api"+site.Path(canonical, slug), http.StatusFound)
		return
	}
	page, err := s.cfg.Site.Page(r.Context(), version, slug)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	b, err := json.Marshal(page)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	writeJSONBytes(w, r, b)
}

// handleIndex returns the metadata index of a version.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	b, err := s.cfg.Site.RawIndex(r.Context(), chi.URLParam(r, "version"))
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	writeJSONBytes(w, r, b)
}

// data returns template data for r with the session theme and the version list.
func (s *Server) data(r *http.Request) *view.Data {
	ctx := r.Context()
	theme, _, err := s.cfg.Sessions.Theme(r)
	if err != nil {
		s.log.WarnContext(ctx, "Cannot load session theme", logattr.Error(err))
	}
	d := s.cfg.Views.Data(theme)
	d.Path = r.URL.Path
	d.Version = s.cfg.Site.DefaultVersion()
	versions, err := s.cfg.Site.Versions(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Cannot list versions", logattr.Error(err))
	}
	d.Versions = versions
	return d
}

// fail renders the not found page for ErrNotFound, and the error page otherwise.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, site.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	s.log.ErrorContext(r.Context(), "Request failed", logattr.Path(r.URL.Path), logattr.Error(err))
	d := s.data(r)
	d.Title = "Error"
	d.Message = err.Error()
	s.render(w, r, http.StatusInternalServerError, "error", d)
}

// notFound renders the not found page.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusNotFound)
}

// renderStatus renders the page for an error status.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int) {
	d := s.data(r)
	d.Status = status
	d.StatusText = http.StatusText(status)
	d.Title = d.StatusText
	name := "notfound"
	if status != http.StatusNotFound {
		name = "error"
		d.Message = d.StatusText
	}
	s.render(w, r, status, name, d)
}

// render executes the named template. If the template fails, the status text is sent instead.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, d *view.Data) {
	var buf bytes.Buffer
	if err := s.cfg.Views.Execute(&buf, name, d); err != nil {
		s.log.ErrorContext(r.Context(), "Cannot render template", logattr.Template(name), logattr.Error(err))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(status)
		w.Write([]byte(http.StatusText(status) + "\n"))
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	w.Write(b)
}

// errorResponse is the JSON body of a failed API request.
type errorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// failJSON writes err as JSON: 404 for ErrNotFound, 500 otherwise.
func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	if errors.Is(err, site.ErrNotFound) {
		status = http.StatusNotFound
		msg = http.StatusText(status)
	} else {
		s.log.ErrorContext(r.Context(), "Request failed", logattr.Path(r.URL.Path), logattr.Error(err))
	}
	writeJSON(w, status, errorResponse{Status: status, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONBytes writes b with a strong ETag, answering 304 when the client has it.
func writeJSONBytes(w http.ResponseWriter, r *http.Request, b []byte) {
	sum := sha256.Sum256(b)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatch(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// etagMatch reports whether the If-None-Match header value matches etag.
func etagMatch(header, etag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if part == "*" || part == etag {
			return true
		}
	}
	return false
}
