/*
Package web is the HTTP surface of the documentation server.

	GET  /                               redirect to /docs
	GET  /docs[/{version}[/{slug}]]      documentation pages and redirects
	GET  /api/docs/{version}/{slug}      page data as JSON, with an ETag
	GET  /api/docs/{version}/index.json  metadata index of a version
	POST /theme                          save the theme preference
	GET  /healthcheck                    OK or ERROR
	GET  /sitemap.txt                    every article URL
	GET  /search/{version}.json          search records of a version
	GET  /metrics                        Prometheus metrics
	GET  /static/*                       stylesheets, scripts and images
*/
package web

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/metrics"
	"github.com/ancientlore/docserve/session"
	"github.com/ancientlore/docserve/site"
	"github.com/ancientlore/docserve/view"
)

// Config configures a Server.
type Config struct {
	Site          *site.Site
	Views         *view.Views
	Cache         *view.Cache // optional render cache for pages
	Sessions      *session.Manager
	Metrics       *metrics.Recorder
	Logger        *slog.Logger
	Static        fs.FS             // defaults to view.Static()
	Headers       map[string]string // added to every response
	Expires       time.Duration     // expiry of dynamic responses; 0 omits the header
	StaticExpires time.Duration     // expiry of static assets; 0 omits the header
	Generation    func() uint64     // content generation, part of the render cache key
}

// Server routes requests.
type Server struct {
	cfg    Config
	log    *slog.Logger
	chroma []byte
	router *chi.Mux
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Site == nil || cfg.Views == nil || cfg.Sessions == nil {
		return nil, fmt.Errorf("New: site, views and sessions are required")
	}
	if cfg.Static == nil {
		cfg.Static = view.Static()
	}
	if cfg.Generation == nil {
		cfg.Generation = func() uint64 { return 0 }
	}
	s := &Server{cfg: cfg, log: cfg.Logger}
	if s.log == nil {
		s.log = slog.Default()
	}
	var css bytes.Buffer
	if err := cfg.Site.Compiler().CSS(&css); err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	s.chroma = css.Bytes()
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(func(h http.Handler) http.Handler { return HeaderHandler(h, s.cfg.Headers) })
	r.Use(func(h http.Handler) http.Handler { return ExpiresHandler(h, s.cfg.Expires, s.cfg.StaticExpires) })
	r.Use(gziphandler.GzipHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.notFound(w, r)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, site.DocsPrefix, http.StatusFound)
	})
	r.Get("/docs", s.handleDocs)
	r.Get("/docs/{version}", s.handleDocs)
	r.Get("/docs/{version}/{slug}", s.handleDocs)
	r.Get("/api/docs/{version}/index.json", s.handleIndex)
	r.Get("/api/docs/{version}/{slug}", s.handlePage)
	r.HandleFunc("/theme", s.handleTheme)
	r.Get("/healthcheck", s.handleHealth)
	r.Get("/sitemap.txt", s.handleSitemap)
	r.Get("/search/{file}", s.handleSearch)
	r.Handle("/metrics", s.cfg.Metrics.Handler())
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, StaticPrefix+"favicon.svg", http.StatusPermanentRedirect)
	})
	r.Get(StaticPrefix+"chroma.css", s.handleChroma)
	r.Handle(StaticPrefix+"*", ErrorHandler(
		http.StripPrefix(StaticPrefix, http.FileServer(http.FS(s.cfg.Static))),
		s.renderStatus,
	))
	s.router = r
}

// observe records request metrics and logs the request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		d := time.Since(start)
		s.cfg.Metrics.ObserveRequest(route, r.Method, status, d)

		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.log.LogAttrs(r.Context(), level, "Request",
			logattr.Method(r.Method),
			logattr.Path(r.URL.Path),
			logattr.Status(status),
			logattr.Duration(d),
			logattr.RequestID(middleware.GetReqID(r.Context())),
		)
	})
}
