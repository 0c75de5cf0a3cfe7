// Package s3 publishes objects to Amazon S3 or an S3-compatible endpoint.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/storage/types"
)

// API is the subset of the S3 client the adapter calls.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	s3.ListObjectsV2APIClient
}

type Client struct {
	api     API
	bucket  string
	region  string
	logger  observability.Logger
	metrics observability.Metrics
}

// NewClient builds an S3 client from the storage config and makes sure the
// bucket exists.
func NewClient(ctx context.Context, cfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (*Client, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	client := NewWithAPI(api, cfg.BucketOrPath, cfg.S3.Region, logger, metrics)

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.ensureBucketExists(checkCtx); err != nil {
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}
	return client, nil
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API, bucket, region string, logger observability.Logger, metrics observability.Metrics) *Client {
	return &Client{
		api:     api,
		bucket:  bucket,
		region:  region,
		logger:  logger.WithFields(observability.Fields{"storage": "s3"}),
		metrics: metrics,
	}
}

func (c *Client) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration("storage.s3.put", time.Since(start).Seconds())
	}()
	bucket = c.bucketOrDefault(bucket)

	// PutObject needs a seekable body to sign the payload.
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, reader); err != nil {
		c.metrics.RecordError("storage.s3.put", "read")
		return fmt.Errorf("failed to read content: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
	}
	if metadata.ContentType != "" {
		input.ContentType = aws.String(metadata.ContentType)
	}
	if len(metadata.UserMetadata) > 0 {
		input.Metadata = metadata.UserMetadata
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		c.metrics.RecordError("storage.s3.put", "put_object")
		c.logger.Error(ctx, "failed to put object", err, observability.Fields{
			"bucket": bucket,
			"key":    key,
		})
		return fmt.Errorf("failed to put object: %w", err)
	}

	c.metrics.RecordSuccess("storage.s3.put")
	c.logger.Debug(ctx, "object stored", observability.Fields{
		"bucket": bucket,
		"key":    key,
		"size":   buf.Len(),
	})
	return nil
}

func (c *Client) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	bucket = c.bucketOrDefault(bucket)

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, types.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	bucket = c.bucketOrDefault(bucket)

	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		c.metrics.RecordError("storage.s3.delete", "delete_object")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	bucket = c.bucketOrDefault(bucket)

	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

func (c *Client) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	bucket = c.bucketOrDefault(bucket)

	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []types.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         aws.ToString(obj.ETag),
			})
		}
	}
	return objects, nil
}

func (c *Client) bucketOrDefault(bucket string) string {
	if bucket == "" {
		return c.bucket
	}
	return bucket
}

func (c *Client) ensureBucketExists(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}

	var notFound *s3types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	c.logger.Info(ctx, "bucket does not exist, creating it", observability.Fields{"bucket": c.bucket})

	input := &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.region),
		}
	}

	if _, err := c.api.CreateBucket(ctx, input); err != nil {
		var exists *s3types.BucketAlreadyExists
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &exists) || errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func buildAWSConfig(ctx context.Context, cfg *config.StorageConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.S3.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.S3.Region))
	}
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		))
	}
	if cfg.MaxRetries > 0 {
		optFns = append(optFns, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}
	optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

func isNotFoundError(err error) bool {
	var noKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
