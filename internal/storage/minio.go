package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"image-library/internal/domain"
)

// ClientMinio is the subset of *minio.Client used by MinioService.
type ClientMinio interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioService keeps image binaries in a MinIO deployment.
type MinioService struct {
	client ClientMinio
}

// MinioOptions describes how to reach a MinIO endpoint.
type MinioOptions struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

func NewMinioService(opts MinioOptions) (*MinioService, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioService{client: client}, nil
}

func NewMinioServiceWithClient(client ClientMinio) *MinioService {
	return &MinioService{client: client}
}

func (s *MinioService) Upload(ctx context.Context, body io.Reader, opts UploadOptions) error {
	if opts.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if opts.Key == "" {
		return fmt.Errorf("object key is required")
	}

	size := opts.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, opts.Bucket, opts.Key, body, size, minio.PutObjectOptions{
		ContentType: contentTypeOrDefault(opts.ContentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w: %w", opts.Key, domain.ErrBlobStore, err)
	}
	return nil
}

func (s *MinioService) DeleteObject(ctx context.Context, bucket, key string) error {
	if bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if key == "" {
		return fmt.Errorf("object key is required")
	}

	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("delete object %s: %w: %w", key, domain.ErrBlobStore, err)
	}
	return nil
}

func (s *MinioService) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}

	u, err := s.client.PresignedGetObject(ctx, bucket, key, expires, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w: %w", key, domain.ErrBlobStore, err)
	}
	return u.String(), nil
}

var _ Service = (*MinioService)(nil)
