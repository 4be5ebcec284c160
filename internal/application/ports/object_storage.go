package ports

import "context"

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	CopyObject(ctx context.Context, srcKey, dstKey string) error
	RemoveObject(ctx context.Context, key string) error
	GetPublicURL(key string) string
	GetBucket() string
}
