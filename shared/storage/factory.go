package storage

import (
	"context"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/storage/adapters/fs"
	"bingads-extractor/shared/storage/adapters/minio"
	"bingads-extractor/shared/storage/adapters/s3"
	"bingads-extractor/shared/storage/types"
)

func defaultFactories() map[string]Factory {
	return map[string]Factory{
		"filesystem": createFilesystemStorage,
		"s3":         createS3Storage,
		"minio":      createMinioStorage,
	}
}

func createFilesystemStorage(_ context.Context, cfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (types.ObjectStorage, error) {
	return fs.NewStorage(cfg.BucketOrPath, logger, metrics)
}

func createS3Storage(ctx context.Context, cfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (types.ObjectStorage, error) {
	return s3.NewClient(ctx, cfg, logger, metrics)
}

func createMinioStorage(ctx context.Context, cfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (types.ObjectStorage, error) {
	return minio.NewStorage(ctx, cfg, logger, metrics)
}
