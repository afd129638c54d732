// Package objstore provides S3-compatible object store access for source
// file listing and download, built on the minio-go SDK.
//
// The ingestion core depends only on the Lister and Downloader interfaces so
// source selection and download are testable without a live endpoint.
package objstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/analytics-infra/chrunner/internal/config"
)

// Lister lists object keys under a prefix. Pagination is handled internally;
// callers always see the complete listing.
type Lister interface {
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Downloader fetches a whole object into memory.
type Downloader interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// Client implements Lister and Downloader over minio-go.
type Client struct {
	mc     *minio.Client
	logger *slog.Logger
}

// New creates an object store client from config.
func New(cfg config.ObjectStoreConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	return &Client{mc: mc, logger: logger}, nil
}

// List returns every object key under the prefix, in listing order.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range c.mc.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	c.logger.Debug("listed objects", "bucket", bucket, "prefix", prefix, "count", len(keys))
	return keys, nil
}

// Download reads the full object into memory. Source files are bounded by
// the ingestion row cap, so whole-object reads are acceptable here.
func (c *Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}

	c.logger.Debug("downloaded object", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}
