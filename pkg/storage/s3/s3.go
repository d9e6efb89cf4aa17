// Package s3 provides an S3-compatible storage.Backend, the driver used
// for cloud repositories (AWS S3, Backblaze B2's S3-compatible endpoint,
// MinIO, and similar).
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/backupd/backupd/pkg/apperr"
)

// Config holds configuration for the S3-compatible backend.
type Config struct {
	// Bucket is the bucket name.
	Bucket string

	// Region is the region (optional, uses SDK default if empty).
	Region string

	// Endpoint overrides the default AWS endpoint, for S3-compatible
	// services such as Backblaze B2 or MinIO.
	Endpoint string

	// KeyPrefix is prepended to every key (e.g. "repo/"). Should end
	// with "/" if non-empty.
	KeyPrefix string

	// ForcePathStyle forces path-style addressing, required by most
	// non-AWS S3-compatible services.
	ForcePathStyle bool
}

// Backend is an S3-compatible implementation of storage.Backend.
type Backend struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// New creates a backend from an existing S3 client.
func New(client *s3.Client, cfg Config) *Backend {
	return &Backend{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}
}

// NewFromConfig builds an S3 client from cfg and the ambient AWS
// configuration (environment, shared config file, instance profile) and
// returns a ready backend. The preferred constructor when the caller
// doesn't already hold an *s3.Client.
func NewFromConfig(ctx context.Context, cfg Config) (*Backend, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "load AWS config", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return New(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

func (b *Backend) fullKey(key string) string {
	return b.keyPrefix + key
}

// Put writes data under key.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if b.isClosed() {
		return apperr.InvalidArgument("backend is closed")
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.fullKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return apperr.IOError(key, fmt.Errorf("s3 put object: %w", err))
	}
	return nil
}

// Get reads the bytes stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.isClosed() {
		return nil, apperr.InvalidArgument("backend is closed")
	}

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.fullKey(key)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, apperr.NotFound(key)
		}
		return nil, apperr.IOError(key, fmt.Errorf("s3 get object: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.IOError(key, fmt.Errorf("read s3 object body: %w", err))
	}
	return data, nil
}

// Delete removes key. Not an error if key does not exist.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if b.isClosed() {
		return apperr.InvalidArgument("backend is closed")
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.fullKey(key)),
	})
	if err != nil {
		return apperr.IOError(key, fmt.Errorf("s3 delete object: %w", err))
	}
	return nil
}

// List returns a lazy iterator over keys with the given prefix, paging
// through ListObjectsV2 results as the caller consumes them.
func (b *Backend) List(ctx context.Context, prefix string) func(yield func(string, error) bool) {
	return func(yield func(string, error) bool) {
		if b.isClosed() {
			yield("", apperr.InvalidArgument("backend is closed"))
			return
		}

		fullPrefix := b.fullKey(prefix)
		paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(b.bucket),
			Prefix: aws.String(fullPrefix),
		})

		for paginator.HasMorePages() {
			if err := ctx.Err(); err != nil {
				yield("", apperr.Cancelled())
				return
			}

			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield("", apperr.IOError(prefix, fmt.Errorf("s3 list objects: %w", err)))
				return
			}

			for _, obj := range page.Contents {
				key := aws.ToString(obj.Key)
				if b.keyPrefix != "" && strings.HasPrefix(key, b.keyPrefix) {
					key = key[len(b.keyPrefix):]
				}
				if !yield(key, nil) {
					return
				}
			}
		}
	}
}

// Close marks the backend as unusable for further operations.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Backend) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// HealthCheck verifies the bucket is reachable and accessible.
func (b *Backend) HealthCheck(ctx context.Context) error {
	if b.isClosed() {
		return apperr.InvalidArgument("backend is closed")
	}

	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		return apperr.IOError(b.bucket, fmt.Errorf("health check: %w", err))
	}
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}
