package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"file-manager-api/config"
)

type Client struct {
	logger *zap.Logger
	mc     *minio.Client
	bucket string
}

func New(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Storage,
) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client init: %w", err)
	}

	// fail startup on an unreachable backend, same contract as db/mq
	if _, err = mc.BucketExists(ctx, cfg.BucketUploads); err != nil {
		return nil, fmt.Errorf("storage ping failed: %w", err)
	}

	logger.Info("object storage connected successfully", zap.String("endpoint", cfg.Endpoint))

	return &Client{
		logger: logger,
		mc:     mc,
		bucket: cfg.BucketUploads,
	}, nil
}

// EnsureBucket is idempotent and safe to race across workers: a concurrent
// MakeBucket losing the race reports "already owned", which is success.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	if exists {
		return nil
	}

	if err = c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		if exists, errExists := c.mc.BucketExists(ctx, c.bucket); errExists == nil && exists {
			return nil
		}
		return fmt.Errorf("bucket create: %w", err)
	}
	c.logger.Info("bucket created", zap.String("bucket", c.bucket))

	return nil
}

func (c *Client) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := c.mc.PutObject(
		ctx,
		c.bucket,
		key,
		bytes.NewReader(body),
		int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}

	return nil
}

func (c *Client) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := c.mc.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: c.bucket, Object: srcKey},
	)
	if err != nil {
		return fmt.Errorf("copy object %q -> %q: %w", srcKey, dstKey, err)
	}

	return nil
}

func (c *Client) RemoveObject(ctx context.Context, key string) error {
	if err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}

	return nil
}

func (c *Client) GetPublicURL(key string) string {
	scheme := "http"
	if c.mc.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.mc.EndpointURL().Host, c.bucket, key)
}

func (c *Client) GetBucket() string { return c.bucket }
