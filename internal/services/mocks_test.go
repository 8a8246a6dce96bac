package services

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
)

// MockMinioClient implements MinioClient for testing
type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) ListObjectsPaginated(ctx context.Context, bucketName string, opts ListObjectsOptions) (ListObjectsResult, error) {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(ListObjectsResult), args.Error(1)
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinioClient) GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (m *MockMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

// MockMinioFactory implements MinioClientFactory for testing
type MockMinioFactory struct {
	mock.Mock
}

func (m *MockMinioFactory) NewClient(creds Credentials) (MinioClient, error) {
	args := m.Called(creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(MinioClient), args.Error(1)
}
