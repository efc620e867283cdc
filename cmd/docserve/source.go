package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ancientlore/docserve/config"
	"github.com/ancientlore/docserve/content"
	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/notify"
	"github.com/ancientlore/docserve/session"
	"github.com/ancientlore/docserve/view"
)

// source is an opened content source.
type source struct {
	content.Source
	git    *content.Git // set for git sources, which are fetched periodically
	closer io.Closer
}

// Close releases the source.
func (s source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openSource opens the content source selected by cfg.
func openSource(ctx context.Context, cfg config.Source) (source, error) {
	switch cfg.Kind {
	case config.SourceDir:
		return source{Source: content.NewDir(os.DirFS(cfg.Dir))}, nil
	case config.SourceGitHub:
		gh, err := content.NewGitHub(content.GitHubConfig{
			APIURL:   cfg.GitHub.APIURL,
			Owner:    cfg.GitHub.Owner,
			Repo:     cfg.GitHub.Repo,
			Dir:      cfg.GitHub.Dir,
			Token:    cfg.GitHub.Token,
			Branches: cfg.GitHub.Branches,
		}, nil)
		if err != nil {
			return source{}, err
		}
		return source{Source: gh}, nil
	case config.SourceGit:
		g, err := content.CloneGit(ctx, content.GitConfig{
			URL:   cfg.Git.URL,
			Dir:   cfg.Git.Dir,
			Token: cfg.Git.Token,
		})
		if err != nil {
			return source{}, err
		}
		return source{Source: g, git: g}, nil
	case config.SourceBucket:
		b, err := content.OpenBucket(ctx, cfg.Bucket.URL, cfg.Bucket.Prefix)
		if err != nil {
			return source{}, err
		}
		return source{Source: b, closer: b}, nil
	}
	return source{}, fmt.Errorf("openSource: unknown kind %q", cfg.Kind)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore opens the session store selected by cfg.
func openStore(cfg config.Session) (session.Store, io.Closer, error) {
	if cfg.Store == config.StoreSQLite {
		s, err := session.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	return session.NewMemoryStore(), nopCloser{}, nil
}

// watch reloads templates and drops cached content when local files change.
func watch(ctx context.Context, cfg config.Config, views *view.Views, notifier *notify.Notifier, log *slog.Logger) error {
	if cfg.Source.Kind == config.SourceDir {
		err := notify.Watch(ctx, cfg.Source.Dir, 0, log, func(ctx context.Context) {
			notifier.Invalidate(ctx, "fsnotify")
		})
		if err != nil {
			return err
		}
		log.Info("Watching content", logattr.Path(cfg.Source.Dir))
	}
	if views.Dir() != "" {
		err := notify.Watch(ctx, views.Dir(), 0, log, func(ctx context.Context) {
			if _, err := views.Load(); err != nil {
				log.Error("Cannot reload templates", logattr.Error(err))
				return
			}
			log.Info("Reloaded templates", logattr.Template(views.Defined()))
		})
		if err != nil {
			return err
		}
		log.Info("Watching templates", logattr.Path(views.Dir()))
	}
	return nil
}

// newLogger creates the process logger.
func newLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
