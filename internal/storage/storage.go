package storage

import (
	"context"
	"io"
	"time"
)

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
}

// Service stores and removes image binaries in remote object storage.
//
// DeleteObject is idempotent: removing a key that is already gone is not an
// error. Every other failure wraps domain.ErrBlobStore.
type Service interface {
	Upload(ctx context.Context, body io.Reader, opts UploadOptions) error
	DeleteObject(ctx context.Context, bucket, key string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

const defaultContentType = "application/octet-stream"

func contentTypeOrDefault(contentType string) string {
	if contentType == "" {
		return defaultContentType
	}
	return contentType
}
