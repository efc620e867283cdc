// Command docserve serves versioned documentation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	"github.com/golang/groupcache"
	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ancientlore/docserve/cache"
	"github.com/ancientlore/docserve/cachefs"
	"github.com/ancientlore/docserve/config"
	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/markdown"
	"github.com/ancientlore/docserve/metrics"
	"github.com/ancientlore/docserve/notify"
	"github.com/ancientlore/docserve/session"
	"github.com/ancientlore/docserve/site"
	"github.com/ancientlore/docserve/view"
	"github.com/ancientlore/docserve/web"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// main is where it all begins. 😀
func main() {
	// Setup flags
	var (
		fConfig    = flag.String("config", "docserve.toml", "Configuration file.")
		fEnv       = flag.String("env", ".env", "File of environment variables to load before reading settings.")
		fPort      = flag.Int("port", 0, "Port to listen on; overrides the configuration file.")
		fDir       = flag.String("dir", "", "Serve content from this folder; overrides the configuration file.")
		fTemplates = flag.String("templates", "", "Folder of templates overriding the defaults.")
		fWatch     = flag.Bool("watch", false, "Reload content and templates when files change.")
		fLogLevel  = flag.String("loglevel", "", "Log level: debug, info, warn or error.")
		fLogFormat = flag.String("logformat", "", "Log format: text or json.")
	)
	flag.Parse()
	if err := godotenv.Load(*fEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Cannot load %s: %s\n", *fEnv, err)
		os.Exit(1)
	}
	flagenv.Prefix = "DOCSERVE_"
	flagenv.Parse()

	// Read configuration
	cfg, err := config.Load(*fConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *fPort != 0 {
		cfg.Server.Port = *fPort
	}
	if *fDir != "" {
		cfg.Source.Kind = config.SourceDir
		cfg.Source.Dir = *fDir
	}
	if *fTemplates != "" {
		cfg.Site.Templates = *fTemplates
	}
	if *fWatch {
		cfg.Notify.Watch = true
	}
	if *fLogLevel != "" {
		cfg.Log.Level = *fLogLevel
	}
	if *fLogFormat != "" {
		cfg.Log.Format = *fLogFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(2)
	}

	log := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(log)
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	// Setup groupcache (with no peers)
	groupcache.RegisterPeerPicker(func() groupcache.PeerPicker { return groupcache.NoPeers{} })

	if err := run(cfg, log); err != nil {
		log.Error("Server failed", logattr.Error(err))
		os.Exit(3)
	}
	log.Info("Goodbye.")
}

// run wires the server together and serves until SIGINT or SIGTERM.
func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := metrics.New(nil)

	// Content
	src, err := openSource(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer src.Close()
	log.Info("Opened content source", logattr.Source(cfg.Source.Kind))

	cached := cache.New(src.Source, &cache.Config{
		GroupName:   "content",
		SizeInBytes: cfg.Cache.SizeInBytes,
		Duration:    time.Duration(cfg.Cache.Duration),
	})
	compiler, err := markdown.New(markdown.Options{
		Engine:        cfg.Markdown.Engine,
		Style:         cfg.Markdown.Style,
		GuessLanguage: cfg.Markdown.GuessLanguage,
	})
	if err != nil {
		return err
	}
	st := site.New(cached, compiler, site.Config{
		DefaultVersion: cfg.Site.DefaultVersion,
		DefaultSlugs:   cfg.Site.DefaultSlugs,
		Aliases:        cfg.Site.Aliases,
		BaseURL:        cfg.Site.BaseURL,
		Logger:         log,
		Metrics:        rec,
	})

	// Templates
	views, err := view.New(view.Config{
		Dir:      cfg.Site.Templates,
		SiteName: cfg.Site.Name,
		Search: view.Search{
			AppID:     cfg.Search.AppID,
			APIKey:    cfg.Search.APIKey,
			IndexName: cfg.Search.IndexName,
		},
		Logger: log,
	})
	if err != nil {
		return err
	}
	log.Info("Loaded templates", logattr.Template(views.Defined()))

	// Sessions
	store, closeStore, err := openStore(cfg.Session)
	if err != nil {
		return err
	}
	defer closeStore.Close()
	sessions := session.NewManager(store, session.Config{
		Secure: cfg.Session.Secure,
		MaxAge: time.Duration(cfg.Session.MaxAge),
	})

	pages := view.NewCache(views, &cache.Config{
		GroupName:   "pages",
		SizeInBytes: cfg.Cache.SizeInBytes / 4,
		Duration:    time.Duration(cfg.Cache.Duration),
	})
	static := cachefs.New(view.Static(), &cachefs.Config{
		GroupName:   "static",
		SizeInBytes: 4 << 20,
		Duration:    time.Duration(cfg.Server.StaticExpires),
	})
	for name, stats := range map[string]func() metrics.CacheStats{"content": cached.Stats, "pages": pages.Stats} {
		if err := rec.RegisterCache(name, stats); err != nil {
			return err
		}
	}
	handler, err := web.New(web.Config{
		Site:          st,
		Views:         views,
		Cache:         pages,
		Sessions:      sessions,
		Metrics:       rec,
		Logger:        log,
		Static:        static,
		Headers:       cfg.Server.Headers,
		Expires:       time.Duration(cfg.Server.Expires),
		StaticExpires: time.Duration(cfg.Server.StaticExpires),
		Generation:    cached.Generation,
	})
	if err != nil {
		return err
	}
	log.Info("Created handlers")

	// Invalidation
	notifier := notify.New(cached, rec, log)
	if cfg.Jobs.Warm > 0 {
		notifier.OnInvalidate(func(ctx context.Context) { warm(ctx, st, log) })
	}
	if cfg.Notify.NATSURL != "" {
		sub, err := notifier.Subscribe(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			return err
		}
		defer sub.Close()
	}
	if cfg.Notify.Watch {
		if err := watch(ctx, cfg, views, notifier, log); err != nil {
			return err
		}
	}

	// Background jobs
	scheduler, err := startJobs(ctx, jobsFor(cfg, src, st, store, notifier, log), log)
	if err != nil {
		return err
	}
	defer scheduler.Shutdown()

	// Create HTTP server
	var srv = http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout),
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout),
	}

	// Create signal handler for graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)

		// interrupt signal sent from terminal
		signal.Notify(sigint, os.Interrupt)
		// sigterm signal sent from kubernetes
		signal.Notify(sigint, syscall.SIGTERM)

		<-sigint
		cancel()

		// We received an interrupt signal, shut down.
		shutdownCtx, stop := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout))
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Error("HTTP server shutdown", logattr.Error(err))
		}
	}()

	// Listen for requests
	log.Info("Listening for requests", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}
