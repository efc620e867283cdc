package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/site"
)

// handleHealth checks that the metadata index can be fetched.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.cfg.Site.Health(r.Context()); err != nil {
		s.log.WarnContext(r.Context(), "Health check failed", logattr.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("ERROR"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleSitemap lists the URL of every article, one per line.
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	urls, err := s.cfg.Site.SitemapURLs(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "Cannot build sitemap", logattr.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, u := range urls {
		w.Write([]byte(u + "\n"))
	}
}

// handleSearch returns the search records of the version named by {version}.json.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	version, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".json")
	if !ok {
		s.failJSON(w, r, site.ErrNotFound)
		return
	}
	entries, err := s.cfg.Site.SearchEntries(r.Context(), version)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleChroma serves the syntax highlighting stylesheet.
func (s *Server) handleChroma(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(s.chroma)
}
