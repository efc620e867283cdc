/*
Package notify drops cached content when the documentation changes. Changes are announced
on a NATS subject by the publishing pipeline, or detected on disk with fsnotify when
content is served from a local directory.
*/
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/metrics"
)

// DefaultSubject is the NATS subject announcing content updates.
const DefaultSubject = "docs.updated"

// Invalidator drops cached content.
type Invalidator interface {
	Invalidate()
}

// InvalidatorFunc adapts a function to an Invalidator.
type InvalidatorFunc func()

// Invalidate calls f.
func (f InvalidatorFunc) Invalidate() {
	f()
}

// Notifier invalidates a cache and runs follow-up hooks, such as warming the cache again.
type Notifier struct {
	inv     Invalidator
	metrics *metrics.Recorder
	log     *slog.Logger

	mu    sync.Mutex
	hooks []func(context.Context)
}

// New creates a Notifier around inv. metrics and log may be nil.
func New(inv Invalidator, m *metrics.Recorder, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{inv: inv, metrics: m, log: log}
}

// OnInvalidate registers fn to run after every invalidation.
func (n *Notifier) OnInvalidate(fn func(context.Context)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, fn)
}

// Invalidate drops the cache and runs the hooks.
func (n *Notifier) Invalidate(ctx context.Context, reason string, attrs ...slog.Attr) {
	n.inv.Invalidate()
	n.metrics.IncInvalidations()
	args := []any{logattr.Source(reason)}
	for _, a := range attrs {
		args = append(args, a)
	}
	n.log.InfoContext(ctx, "Content cache invalidated", args...)

	n.mu.Lock()
	hooks := append([]func(context.Context){}, n.hooks...)
	n.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}
