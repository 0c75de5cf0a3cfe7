// Package minio publishes objects to a MinIO (or any S3-compatible) server
// through minio-go.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/storage/types"
)

type Storage struct {
	client  *minio.Client
	bucket  string
	region  string
	logger  observability.Logger
	metrics observability.Metrics
}

// NewStorage connects to cfg.Minio.Endpoint and creates the bucket when missing.
func NewStorage(ctx context.Context, cfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (*Storage, error) {
	endpoint, secure, err := ParseEndpoint(cfg.Minio.Endpoint, cfg.Minio.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: secure,
		Region: cfg.Minio.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &Storage{
		client:  client,
		bucket:  cfg.BucketOrPath,
		region:  cfg.Minio.Region,
		logger:  logger.WithFields(observability.Fields{"storage": "minio"}),
		metrics: metrics,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.ensureBucket(checkCtx); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseEndpoint accepts "host:port" or a URL. An https scheme forces TLS.
func ParseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("minio endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		return strings.TrimSuffix(raw, "/"), useSSL, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("invalid minio endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid minio endpoint %q: missing host", raw)
	}
	return u.Host, useSSL || u.Scheme == "https", nil
}

func (s *Storage) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration("storage.minio.put", time.Since(start).Seconds())
	}()
	bucket = s.bucketOrDefault(bucket)

	size := metadata.ContentLength
	if size <= 0 {
		size = -1
	}
	contentType := metadata.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata.UserMetadata,
	})
	if err != nil {
		s.metrics.RecordError("storage.minio.put", "put_object")
		s.logger.Error(ctx, "failed to put object", err, observability.Fields{"bucket": bucket, "key": key})
		return fmt.Errorf("failed to put object: %w", err)
	}

	s.metrics.RecordSuccess("storage.minio.put")
	s.logger.Debug(ctx, "object stored", observability.Fields{"bucket": bucket, "key": key, "size": info.Size})
	return nil
}

func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	bucket = s.bucketOrDefault(bucket)

	if _, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, types.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

func (s *Storage) Delete(ctx context.Context, bucket, key string) error {
	bucket = s.bucketOrDefault(bucket)
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.metrics.RecordError("storage.minio.delete", "remove_object")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	bucket = s.bucketOrDefault(bucket)
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}

func (s *Storage) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	bucket = s.bucketOrDefault(bucket)

	var objects []types.ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		objects = append(objects, types.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}
	return objects, nil
}

func (s *Storage) bucketOrDefault(bucket string) string {
	if bucket == "" {
		return s.bucket
	}
	return bucket
}

func (s *Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	s.logger.Info(ctx, "bucket does not exist, creating it", observability.Fields{"bucket": s.bucket})
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
