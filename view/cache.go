package view

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/golang/groupcache"
	"github.com/google/uuid"

	"github.com/ancientlore/docserve/cache"
	"github.com/ancientlore/docserve/metrics"
)

// ctxKey is the type used to hold data passed to a template execution.
type ctxKey string

// Cache is a version of Views.Execute that caches rendered output with groupcache.
type Cache struct {
	views    *Views
	duration time.Duration
	group    *groupcache.Group
}

// NewCache creates a Cache for v. If config is nil, it defaults to a 1MB cache
// with a one minute expiry, using a random name.
func NewCache(v *Views, config *cache.Config) *Cache {
	cfg := cache.Config{SizeInBytes: 1 << 20, Duration: time.Minute}
	if config != nil {
		cfg = *config
	}
	if cfg.GroupName == "" {
		cfg.GroupName = uuid.NewString()
	}
	c := &Cache{views: v, duration: cfg.Duration}
	c.group = groupcache.NewGroup(cfg.GroupName, cfg.SizeInBytes, groupcache.GetterFunc(
		func(ctx context.Context, key string, dest groupcache.Sink) error {
			q, err := url.ParseQuery(key)
			if err != nil {
				return fmt.Errorf("render group: %w", err)
			}
			d, ok := ctx.Value(ctxKey("data")).(*Data)
			if !ok {
				return fmt.Errorf("render group: no data for %q", q.Get("key"))
			}
			var buf bytes.Buffer
			if err := v.templates().ExecuteTemplate(&buf, q.Get("template"), d); err != nil {
				return fmt.Errorf("render group: %w", err)
			}
			return dest.SetBytes(buf.Bytes())
		}))
	return c
}

// Execute renders the named template into w. d is passed via a context key, and it
// is assumed that d does not change for a given key while the templates stay loaded.
func (c *Cache) Execute(ctx context.Context, w io.Writer, name, key string, d *Data) error {
	var (
		buf groupcache.ByteView
		q   = make(url.Values, 4)
	)
	q.Set("key", key)
	q.Set("template", name)
	q.Set("g", strconv.FormatUint(c.views.Generation(), 10))
	q.Set("t", strconv.FormatInt(cache.Quantize(time.Now(), c.duration, key), 10))
	ctx = context.WithValue(ctx, ctxKey("data"), d)
	if err := c.group.Get(ctx, q.Encode(), groupcache.ByteViewSink(&buf)); err != nil {
		return fmt.Errorf("Execute: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("Execute: %w", err)
	}
	return nil
}

// Stats returns the statistics of the rendered page cache.
func (c *Cache) Stats() metrics.CacheStats {
	return cache.Stats(c.group)
}
