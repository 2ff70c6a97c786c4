package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-library/internal/domain"
)

type stubS3Deleter struct {
	calls []string
	err   error
}

func (s *stubS3Deleter) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	s.calls = append(s.calls, aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key))
	if s.err != nil {
		return nil, s.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Service_DeleteObject(t *testing.T) {
	stub := &stubS3Deleter{}
	svc := &S3Service{client: stub}

	require.NoError(t, svc.DeleteObject(context.Background(), "bucket", "images/a.jpg"))
	assert.Equal(t, []string{"bucket/images/a.jpg"}, stub.calls)
}

func TestS3Service_DeleteObjectMissingKeyIsNotAnError(t *testing.T) {
	for name, err := range map[string]error{
		"typed":   &types.NoSuchKey{},
		"generic": &smithy.GenericAPIError{Code: "NoSuchKey", Message: "gone"},
	} {
		t.Run(name, func(t *testing.T) {
			svc := &S3Service{client: &stubS3Deleter{err: err}}
			assert.NoError(t, svc.DeleteObject(context.Background(), "bucket", "images/a.jpg"))
		})
	}
}

func TestS3Service_DeleteObjectFailure(t *testing.T) {
	svc := &S3Service{client: &stubS3Deleter{err: &smithy.GenericAPIError{Code: "AccessDenied"}}}

	err := svc.DeleteObject(context.Background(), "bucket", "images/a.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBlobStore)
	assert.Contains(t, err.Error(), "images/a.jpg")
}

func TestS3Service_RequiresBucketAndKey(t *testing.T) {
	stub := &stubS3Deleter{}
	svc := &S3Service{client: stub}

	assert.Error(t, svc.DeleteObject(context.Background(), "", "k"))
	assert.Error(t, svc.DeleteObject(context.Background(), "b", ""))
	assert.Empty(t, stub.calls)
}

type stubMinio struct {
	removed []string
	put     map[string]string
	err     error
}

func (s *stubMinio) PresignedGetObject(_ context.Context, bucketName, objectName string, _ time.Duration, _ url.Values) (*url.URL, error) {
	return &url.URL{Scheme: "https", Host: "minio.local", Path: "/" + bucketName + "/" + objectName}, nil
}

func (s *stubMinio) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if s.err != nil {
		return minio.UploadInfo{}, s.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if s.put == nil {
		s.put = map[string]string{}
	}
	s.put[bucketName+"/"+objectName] = opts.ContentType + ":" + string(data)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func (s *stubMinio) RemoveObject(_ context.Context, bucketName, objectName string, _ minio.RemoveObjectOptions) error {
	s.removed = append(s.removed, bucketName+"/"+objectName)
	return s.err
}

func TestMinioService_UploadAndDelete(t *testing.T) {
	stub := &stubMinio{}
	svc := NewMinioServiceWithClient(stub)
	ctx := context.Background()

	require.NoError(t, svc.Upload(ctx, strings.NewReader("jpeg"), UploadOptions{Bucket: "b", Key: "images/x.jpg", Size: 4}))
	assert.Equal(t, defaultContentType+":jpeg", stub.put["b/images/x.jpg"])

	require.NoError(t, svc.DeleteObject(ctx, "b", "images/x.jpg"))
	assert.Equal(t, []string{"b/images/x.jpg"}, stub.removed)

	u, err := svc.GetObjectURL(ctx, "b", "images/x.jpg", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/b/images/x.jpg", u)
}

func TestMinioService_DeleteObjectErrors(t *testing.T) {
	ctx := context.Background()

	missing := NewMinioServiceWithClient(&stubMinio{err: minio.ErrorResponse{Code: "NoSuchKey"}})
	assert.NoError(t, missing.DeleteObject(ctx, "b", "images/x.jpg"))

	denied := NewMinioServiceWithClient(&stubMinio{err: errors.New("connection refused")})
	err := denied.DeleteObject(ctx, "b", "images/x.jpg")
	assert.ErrorIs(t, err, domain.ErrBlobStore)
}

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey(ImageDir, `C:\Users\me\My Holiday (1).jpg`)
	assert.True(t, strings.HasPrefix(key, "images/"), key)
	assert.True(t, strings.HasSuffix(key, "-My_Holiday_1.jpg"), key)

	other := NewObjectKey(ImageDir, `C:\Users\me\My Holiday (1).jpg`)
	assert.NotEqual(t, key, other)

	assert.True(t, strings.HasSuffix(NewObjectKey(ProfileDir, "../.."), "-upload"))
}
