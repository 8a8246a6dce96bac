package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client lets each test override single S3 operations
type mockS3Client struct {
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObjectFunc     func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObjectFunc     func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjectFunc  func(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func (m *mockS3Client) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, in, opts...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (m *mockS3Client) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, in, opts...)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(""))}, nil
}

func (m *mockS3Client) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, in, opts...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.DeleteObjectFunc != nil {
		return m.DeleteObjectFunc(ctx, in, opts...)
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Gateway_ListObjects(t *testing.T) {
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var seen *s3.ListObjectsV2Input

	client := &mockS3Client{
		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			seen = in
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("a.txt"), Size: aws.Int64(3), LastModified: aws.Time(modified)},
					{Key: aws.String("dir/b.log"), Size: aws.Int64(10)},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("token-2"),
			}, nil
		},
	}

	page, err := NewS3Gateway(client, 2).ListObjects(context.Background(), "bucket", "token-1")

	require.NoError(t, err)
	assert.Equal(t, "bucket", aws.ToString(seen.Bucket))
	assert.Equal(t, "token-1", aws.ToString(seen.ContinuationToken))
	assert.Equal(t, int32(2), aws.ToInt32(seen.MaxKeys))
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "a.txt", page.Objects[0].Key)
	assert.Equal(t, modified, page.Objects[0].LastModified)
	assert.Equal(t, "token-2", page.NextToken)
}

func TestS3Gateway_ListObjects_FirstPageHasNoToken(t *testing.T) {
	client := &mockS3Client{
		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Nil(t, in.ContinuationToken)
			assert.Equal(t, int32(MaxS3PageSize), aws.ToInt32(in.MaxKeys))
			return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false), NextContinuationToken: aws.String("ignored")}, nil
		},
	}

	page, err := NewS3Gateway(client, 5000).ListObjects(context.Background(), "bucket", "")

	require.NoError(t, err)
	assert.Empty(t, page.Objects)
	assert.Empty(t, page.NextToken)
}

func TestS3Gateway_ClassifiesFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("api error is a request fault", func(t *testing.T) {
		client := &mockS3Client{
			GetObjectFunc: func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return nil, &types.NoSuchKey{Message: aws.String("missing")}
			},
		}

		_, err := NewS3Gateway(client, 0).GetObject(ctx, "bucket", "missing.txt")

		assert.True(t, IsRequestFault(err))
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("generic api error", func(t *testing.T) {
		client := &mockS3Client{
			PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}
			},
		}

		err := NewS3Gateway(client, 0).PutObject(ctx, "bucket", "a.txt", strings.NewReader("a"), 1)

		assert.True(t, IsRequestFault(err))
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("network error is a transport fault", func(t *testing.T) {
		client := &mockS3Client{
			ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				return nil, errors.New("dial tcp: i/o timeout")
			},
		}

		_, err := NewS3Gateway(client, 0).ListObjects(ctx, "bucket", "")

		assert.True(t, IsTransportFault(err))
	})
}

func TestS3Gateway_PutObject(t *testing.T) {
	var seen *s3.PutObjectInput
	client := &mockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			seen = in
			return &s3.PutObjectOutput{}, nil
		},
	}

	err := NewS3Gateway(client, 0).PutObject(context.Background(), "bucket", "cfg/settings.json", io.NopCloser(strings.NewReader("{}")), 2)

	require.NoError(t, err)
	assert.Equal(t, "cfg/settings.json", aws.ToString(seen.Key))
	assert.Equal(t, int64(2), aws.ToInt64(seen.ContentLength))
	assert.Equal(t, "application/json", aws.ToString(seen.ContentType))
}

func TestS3Gateway_DeleteMissingKeySucceeds(t *testing.T) {
	client := &mockS3Client{
		DeleteObjectFunc: func(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
		},
	}

	assert.NoError(t, NewS3Gateway(client, 0).DeleteObject(context.Background(), "bucket", "gone"))
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		secure   bool
		want     string
	}{
		{"storage.example.com", true, "https://storage.example.com"},
		{"localhost:9000", false, "http://localhost:9000"},
		{"//minio:9000", false, "http://minio:9000"},
		{"http://already:9000", true, "http://already:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, endpointURL(tt.endpoint, tt.secure))
		})
	}
}

func TestNewS3Client_CustomEndpoint(t *testing.T) {
	client, err := NewS3Client(context.Background(), Credentials{
		Endpoint:  "localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, "us-east-1", client.Options().Region)
	assert.True(t, client.Options().UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(client.Options().BaseEndpoint))
}
