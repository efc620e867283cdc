package content

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Bucket reads content from an object store. Keys are laid out like Dir,
// below an optional prefix: <prefix>/<version>/<slug>.mdx and
// <prefix>/<version>/metadata.json.
type Bucket struct {
	bucket *blob.Bucket
	prefix string
}

// OpenBucket opens the bucket at urlstr, for example "s3://docs?region=us-east-1",
// "gs://docs" or "file:///srv/docs". The matching gocloud driver must be linked in.
func OpenBucket(ctx context.Context, urlstr, prefix string) (*Bucket, error) {
	b, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("OpenBucket: %w", err)
	}
	return NewBucket(b, prefix), nil
}

// NewBucket wraps an opened bucket.
func NewBucket(b *blob.Bucket, prefix string) *Bucket {
	return &Bucket{bucket: b, prefix: strings.Trim(prefix, "/")}
}

// Close releases the bucket.
func (b *Bucket) Close() error {
	return b.bucket.Close()
}

// ReadArticle returns the object <prefix>/<version>/<slug>.mdx or .md.
func (b *Bucket) ReadArticle(ctx context.Context, version, slug string) ([]byte, error) {
	if err := check(version, slug); err != nil {
		return nil, err
	}
	for _, key := range articlePaths(path.Join(b.prefix, version), slug) {
		data, err := b.bucket.ReadAll(ctx, key)
		if gcerrors.Code(err) == gcerrors.NotFound {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("ReadArticle: %w", err)
		}
		return data, nil
	}
	return nil, ErrNotFound
}

// ReadIndex returns the object <prefix>/<version>/metadata.json.
func (b *Bucket) ReadIndex(ctx context.Context, version string) ([]byte, error) {
	if err := check(version); err != nil {
		return nil, err
	}
	data, err := b.bucket.ReadAll(ctx, path.Join(b.prefix, version, IndexFile))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("ReadIndex: %w", err)
	}
	return data, nil
}

// Versions lists the "folders" directly below the prefix.
func (b *Bucket) Versions(ctx context.Context) ([]string, error) {
	opts := &blob.ListOptions{Delimiter: "/"}
	if b.prefix != "" {
		opts.Prefix = b.prefix + "/"
	}
	iter := b.bucket.List(opts)
	var v []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("Versions: %w", err)
		}
		if !obj.IsDir {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, opts.Prefix), "/")
		if ValidName(name) {
			v = append(v, name)
		}
	}
	sort.Strings(v)
	return v, nil
}
