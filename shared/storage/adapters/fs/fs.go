// Package fs stores objects as plain files below a base directory. It backs
// the default deployment, where the host picks up tables from out/tables.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/storage/types"
)

type Storage struct {
	basePath string
	logger   observability.Logger
	metrics  observability.Metrics
}

// NewStorage creates basePath if needed.
func NewStorage(basePath string, logger observability.Logger, metrics observability.Metrics) (*Storage, error) {
	if basePath == "" {
		return nil, errors.New("filesystem storage requires a base path")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &Storage{
		basePath: basePath,
		logger:   logger.WithFields(observability.Fields{"storage": "filesystem"}),
		metrics:  metrics,
	}, nil
}

// Put writes to a temporary file next to the target and renames it, so a
// reader never observes a partial table.
func (s *Storage) Put(ctx context.Context, bucket, key string, reader io.Reader, _ types.ObjectMetadata) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration("storage.fs.put", time.Since(start).Seconds())
	}()

	target, err := s.objectPath(bucket, key)
	if err != nil {
		s.metrics.RecordError("storage.fs.put", "invalid_key")
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		s.metrics.RecordError("storage.fs.put", "mkdir")
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		s.metrics.RecordError("storage.fs.put", "create")
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.metrics.RecordError("storage.fs.put", "write")
		s.logger.Error(ctx, "failed to write object", err, observability.Fields{"key": key})
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		s.metrics.RecordError("storage.fs.put", "rename")
		return fmt.Errorf("failed to move %s into place: %w", key, err)
	}

	s.metrics.RecordSuccess("storage.fs.put")
	s.logger.Debug(ctx, "object stored", observability.Fields{
		"key":   key,
		"bytes": written,
	})
	return nil
}

func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

// Delete is idempotent: removing a missing key succeeds.
func (s *Storage) Delete(ctx context.Context, bucket, key string) error {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.metrics.RecordError("storage.fs.delete", "remove")
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// List walks the bucket directory and returns keys with forward slashes.
func (s *Storage) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	root := s.bucketPath(bucket)

	var objects []types.ObjectInfo
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, types.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return objects, nil
}

func (s *Storage) bucketPath(bucket string) string {
	if bucket == "" {
		return s.basePath
	}
	return filepath.Join(s.basePath, bucket)
}

// objectPath rejects keys that would escape the bucket directory.
func (s *Storage) objectPath(bucket, key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.bucketPath(bucket), clean), nil
}
