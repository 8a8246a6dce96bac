package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/damacus/iron-sync/internal/models"
)

// DefaultPageSize is the default number of objects to return per page
const DefaultPageSize = 100

// ListObjectsOptions extends minio.ListObjectsOptions with pagination
type ListObjectsOptions struct {
	Recursive         bool
	MaxKeys           int
	ContinuationToken string
}

// ListObjectsResult contains paginated results from ListObjectsPaginated
type ListObjectsResult struct {
	Objects               []minio.ObjectInfo
	IsTruncated           bool
	NextContinuationToken string
}

// MinioClient is an interface for the standard S3 methods we use
type MinioClient interface {
	ListObjectsPaginated(ctx context.Context, bucketName string, opts ListObjectsOptions) (ListObjectsResult, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, int64, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioClientFactory creates authenticated clients
type MinioClientFactory interface {
	NewClient(creds Credentials) (MinioClient, error)
}

// WrappedMinioClient wraps minio.Client to implement our interface
type WrappedMinioClient struct {
	client *minio.Client
}

func (c *WrappedMinioClient) ListObjectsPaginated(ctx context.Context, bucketName string, opts ListObjectsOptions) (ListObjectsResult, error) {
	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultPageSize
	}

	minioOpts := minio.ListObjectsOptions{
		Recursive: opts.Recursive,
		MaxKeys:   maxKeys,
	}

	// Use StartAfter for continuation (MinIO uses marker-based pagination)
	if opts.ContinuationToken != "" {
		minioOpts.StartAfter = opts.ContinuationToken
	}

	// Stopping early must release the lister goroutine
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []minio.ObjectInfo
	var lastKey string

	for obj := range c.client.ListObjects(ctx, bucketName, minioOpts) {
		if obj.Err != nil {
			return ListObjectsResult{}, obj.Err
		}

		objects = append(objects, obj)
		lastKey = obj.Key

		// Stop after maxKeys objects
		if len(objects) >= maxKeys {
			break
		}
	}

	result := ListObjectsResult{
		Objects:     objects,
		IsTruncated: len(objects) >= maxKeys,
	}

	if result.IsTruncated {
		result.NextContinuationToken = lastKey
	}

	return result, nil
}

func (c *WrappedMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return c.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (c *WrappedMinioClient) GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, int64, error) {
	obj, err := c.client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, 0, err
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, err
	}
	return obj, info.Size, nil
}

func (c *WrappedMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return c.client.RemoveObject(ctx, bucketName, objectName, opts)
}

// RealMinioFactory is the production implementation
type RealMinioFactory struct{}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	// Local development endpoints
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, minio2:9000, etc.)
	// Only match simple hostnames without dots (not domain names like minio.example.com)
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(strings.Split(endpoint, ":")[0], ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

func (f *RealMinioFactory) NewClient(creds Credentials) (MinioClient, error) {
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		Secure: creds.secure(),
		Region: creds.Region,
	})
	if err != nil {
		return nil, err
	}
	return &WrappedMinioClient{client: client}, nil
}

// MinioGateway adapts a MinioClient to StorageGateway
type MinioGateway struct {
	client   MinioClient
	pageSize int
}

// NewMinioGateway creates a gateway listing pageSize keys per page (DefaultPageSize when <= 0)
func NewMinioGateway(client MinioClient, pageSize int) *MinioGateway {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MinioGateway{client: client, pageSize: pageSize}
}

func (g *MinioGateway) ListObjects(ctx context.Context, bucket, continuationToken string) (models.ObjectPage, error) {
	res, err := g.client.ListObjectsPaginated(ctx, bucket, ListObjectsOptions{
		Recursive:         true,
		MaxKeys:           g.pageSize,
		ContinuationToken: continuationToken,
	})
	if err != nil {
		return models.ObjectPage{}, minioFault("list", bucket, "", err)
	}

	page := models.ObjectPage{Objects: make([]models.ObjectEntry, 0, len(res.Objects))}
	for _, obj := range res.Objects {
		page.Objects = append(page.Objects, models.ObjectEntry{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	if res.IsTruncated {
		page.NextToken = res.NextContinuationToken
	}
	return page, nil
}

func (g *MinioGateway) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	rc, _, err := g.client.GetObjectReader(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minioFault("get", bucket, key, err)
	}
	return rc, nil
}

func (g *MinioGateway) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error {
	contentType, body := detectContentType(key, reader)
	_, err := g.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return minioFault("put", bucket, key, err)
	}
	return nil
}

func (g *MinioGateway) DeleteObject(ctx context.Context, bucket, key string) error {
	err := g.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	f := minioFault("delete", bucket, key, err)
	if isNotFoundCode(f.Code) {
		return nil
	}
	return f
}

// minioFault classifies err: a decoded S3 error response is a request fault,
// anything else never reached the service
func minioFault(op, bucket, key string, err error) *Fault {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code != "" {
		return newFault("minio."+op, bucket, key, FaultRequest, resp.Code, err)
	}
	return newFault("minio."+op, bucket, key, FaultTransport, "", err)
}

var _ StorageGateway = (*MinioGateway)(nil)
