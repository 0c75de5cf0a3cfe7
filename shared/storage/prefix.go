package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"bingads-extractor/shared/storage/types"
)

// WithPrefix scopes every key of s under prefix. An empty prefix returns s.
func WithPrefix(s types.ObjectStorage, prefix string) types.ObjectStorage {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix}
}

type prefixed struct {
	inner  types.ObjectStorage
	prefix string
}

func (p *prefixed) key(k string) string {
	return path.Join(p.prefix, k)
}

func (p *prefixed) Put(ctx context.Context, bucket, key string, r io.Reader, md types.ObjectMetadata) error {
	return p.inner.Put(ctx, bucket, p.key(key), r, md)
}

func (p *prefixed) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return p.inner.Get(ctx, bucket, p.key(key))
}

func (p *prefixed) Delete(ctx context.Context, bucket, key string) error {
	return p.inner.Delete(ctx, bucket, p.key(key))
}

func (p *prefixed) Exists(ctx context.Context, bucket, key string) (bool, error) {
	return p.inner.Exists(ctx, bucket, p.key(key))
}

// List returns keys relative to the prefix.
func (p *prefixed) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	objects, err := p.inner.List(ctx, bucket, p.prefix+"/"+prefix)
	if err != nil {
		return nil, err
	}
	for i := range objects {
		objects[i].Key = strings.TrimPrefix(objects[i].Key, p.prefix+"/")
	}
	return objects, nil
}
