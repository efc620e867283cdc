/*
Package cache implements a read-through cache around a content.Source, using groupcache.

	src := cache.New(content.NewDir(os.DirFS("docs")), &cache.Config{GroupName: "docs", SizeInBytes: 10 << 20, Duration: time.Minute})

groupcache does not support expiration, so the current time is quantized into every key:
entries expire around the configured duration. Expiration can be disabled by specifying 0
for the duration. Invalidate starts a new generation of keys, which makes every cached
entry unreachable at once.

Missing content is never cached; content.ErrNotFound is passed through unchanged.
*/
package cache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/golang/groupcache"
	"github.com/google/uuid"

	"github.com/ancientlore/docserve/content"
	"github.com/ancientlore/docserve/metrics"
)

// Config stores the configuration settings of the cache.
type Config struct {
	GroupName   string        // groupcache group name; must be unique within the process
	SizeInBytes int64         // maximum size of the cache
	Duration    time.Duration // approximate expiry of entries; 0 disables expiry
}

// Source is a cached content.Source.
type Source struct {
	src        content.Source
	duration   time.Duration
	generation atomic.Uint64
	group      *groupcache.Group
}

const (
	kindArticle = "article"
	kindIndex   = "index"
)

// New creates a cached Source around src. If config is nil, it defaults
// to a 1MB cache with a ten minute expiry, using a random name.
func New(src content.Source, config *Config) *Source {
	cfg := Config{SizeInBytes: 1 << 20, Duration: 10 * time.Minute}
	if config != nil {
		cfg = *config
	}
	if cfg.GroupName == "" {
		cfg.GroupName = uuid.NewString()
	}
	s := &Source{src: src, duration: cfg.Duration}
	s.group = groupcache.NewGroup(cfg.GroupName, cfg.SizeInBytes, groupcache.GetterFunc(
		func(ctx context.Context, key string, dest groupcache.Sink) error {
			// Parse query which contains quantize info, kind and names
			q, err := url.ParseQuery(key)
			if err != nil {
				return fmt.Errorf("invalid cache key: %w", err)
			}
			var b []byte
			switch q.Get("k") {
			case kindArticle:
				b, err = src.ReadArticle(ctx, q.Get("v"), q.Get("s"))
			case kindIndex:
				b, err = src.ReadIndex(ctx, q.Get("v"))
			default:
				err = fmt.Errorf("invalid cache key kind %q", q.Get("k"))
			}
			if err != nil {
				return err
			}
			return dest.SetBytes(b)
		}))
	return s
}

// ReadArticle implements content.Source.
func (s *Source) ReadArticle(ctx context.Context, version, slug string) ([]byte, error) {
	return s.get(ctx, kindArticle, version, slug)
}

// ReadIndex implements content.Source.
func (s *Source) ReadIndex(ctx context.Context, version string) ([]byte, error) {
	return s.get(ctx, kindIndex, version, "")
}

// Versions passes through to the underlying source when it can list versions.
func (s *Source) Versions(ctx context.Context) ([]string, error) {
	if v, ok := s.src.(content.Versioner); ok {
		return v.Versions(ctx)
	}
	return nil, nil
}

// Invalidate makes all cached entries unreachable.
func (s *Source) Invalidate() {
	s.generation.Add(1)
}

// Generation returns the current key generation.
func (s *Source) Generation() uint64 {
	return s.generation.Load()
}

// Stats returns the statistics of the main cache, for metrics.Recorder.RegisterCache.
func (s *Source) Stats() metrics.CacheStats {
	return Stats(s.group)
}

// Stats converts the main cache statistics of a groupcache group.
func Stats(g *groupcache.Group) metrics.CacheStats {
	st := g.CacheStats(groupcache.MainCache)
	return metrics.CacheStats{
		Gets:      st.Gets,
		Hits:      st.Hits,
		Evictions: st.Evictions,
		Bytes:     st.Bytes,
		Items:     st.Items,
	}
}

func (s *Source) get(ctx context.Context, kind, version, slug string) ([]byte, error) {
	var (
		data []byte
		q    = make(url.Values, 5)
	)
	q.Set("k", kind)
	q.Set("v", version)
	if slug != "" {
		q.Set("s", slug)
	}
	q.Set("g", strconv.FormatUint(s.generation.Load(), 10))
	q.Set("t", strconv.FormatInt(Quantize(time.Now(), s.duration, q.Encode()), 10))
	err := s.group.Get(ctx, q.Encode(), groupcache.AllocatingByteSliceSink(&data))
	if errors.Is(err, content.ErrNotFound) {
		return nil, content.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("cache %s: %w", kind, err)
	}
	return data, nil
}

// Quantize returns the time bucket of t for key. Each key gets its own offset
// so entries do not all expire at the same moment. A duration of 0 disables expiry.
func Quantize(t time.Time, d time.Duration, key string) int64 {
	if d <= 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	offset := int64(h.Sum64() % uint64(d))
	return (t.UnixNano() + offset) / int64(d)
}
