// Package types declares the object storage contract used to publish results.
package types

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage abstracts the sink that receives result tables and manifests.
// An empty bucket selects the adapter's configured default.
type ObjectStorage interface {
	Put(ctx context.Context, bucket, key string, reader io.Reader, metadata ObjectMetadata) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

type ObjectMetadata struct {
	ContentType   string
	ContentLength int64
	UserMetadata  map[string]string
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}
