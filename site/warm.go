package site

import (
	"context"
	"errors"
	"time"

	"github.com/ancientlore/docserve/logattr"
)

// Warm fetches the index and articles of every version so that a caching
// source holds them. It returns the number of articles fetched.
func (s *Site) Warm(ctx context.Context) (int, error) {
	start := time.Now()
	versions, err := s.Versions(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range versions {
		ix, err := s.Index(ctx, v)
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			s.log.WarnContext(ctx, "Warm-up skipped version", logattr.Version(v), logattr.Error(err))
			continue
		}
		for _, slug := range ix.Slugs() {
			if err := ctx.Err(); err != nil {
				return n, err
			}
			if _, err := s.Article(ctx, v, slug); err != nil {
				s.log.WarnContext(ctx, "Warm-up skipped article", logattr.Version(v), logattr.Slug(slug), logattr.Error(err))
				continue
			}
			n++
		}
	}
	s.cfg.Metrics.SetWarmed(n)
	s.log.InfoContext(ctx, "Warmed content", logattr.Count(n), logattr.Duration(time.Since(start)))
	return n, nil
}
