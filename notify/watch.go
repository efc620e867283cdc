package notify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ancientlore/docserve/logattr"
)

// DefaultDebounce is the quiet period after a change before reacting to it.
const DefaultDebounce = 500 * time.Millisecond

// Watch calls fn after files under dir change, once the changes have been quiet for
// debounce. Directories created later are watched too; hidden ones are skipped.
// Watch returns once the watcher is set up and stops when ctx is done.
func Watch(ctx context.Context, dir string, debounce time.Duration, log *slog.Logger, fn func(context.Context)) error {
	if log == nil {
		log = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Watch: %w", err)
	}
	if err := addTree(watcher, dir); err != nil {
		watcher.Close()
		return fmt.Errorf("Watch: %w", err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if hidden(event.Name) || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
					continue
				}
				log.Debug("Change detected", logattr.Path(event.Name), slog.String("op", event.Op.String()))
				if event.Has(fsnotify.Create) {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
						if err := addTree(watcher, event.Name); err != nil {
							log.Warn("Cannot watch new directory", logattr.Path(event.Name), logattr.Error(err))
						}
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() { fn(ctx) })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("Watcher error", logattr.Error(err))
			}
		}
	}()
	return nil
}

// addTree watches dir and its visible subdirectories.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// hidden reports whether the base name of p starts with a period.
func hidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}
