package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/damacus/iron-sync/internal/models"
)

// MaxS3PageSize is the largest page ListObjectsV2 will return
const MaxS3PageSize = 1000

// S3API is the subset of the AWS S3 client the gateway calls
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// NewS3Client builds an AWS S3 client from static credentials.
// A custom endpoint switches to path-style addressing for S3-compatible services.
func NewS3Client(ctx context.Context, creds Credentials) (*s3.Client, error) {
	region := strings.TrimSpace(creds.Region)
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if creds.Endpoint != "" {
		endpoint := endpointURL(creds.Endpoint, creds.secure())
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(cfg, opts...), nil
}

func endpointURL(endpoint string, secure bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	scheme := "https"
	if !secure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(endpoint, "//"))
}

// S3Gateway adapts the AWS S3 API to StorageGateway
type S3Gateway struct {
	client   S3API
	pageSize int32
}

// NewS3Gateway creates a gateway listing pageSize keys per page (capped at MaxS3PageSize)
func NewS3Gateway(client S3API, pageSize int) *S3Gateway {
	if pageSize <= 0 || pageSize > MaxS3PageSize {
		pageSize = MaxS3PageSize
	}
	return &S3Gateway{client: client, pageSize: int32(pageSize)}
}

func (g *S3Gateway) ListObjects(ctx context.Context, bucket, continuationToken string) (models.ObjectPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(g.pageSize),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}

	out, err := g.client.ListObjectsV2(ctx, input)
	if err != nil {
		return models.ObjectPage{}, s3Fault("list", bucket, "", err)
	}

	page := models.ObjectPage{Objects: make([]models.ObjectEntry, 0, len(out.Contents))}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, models.ObjectEntry{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

func (g *S3Gateway) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Fault("get", bucket, key, err)
	}
	return out.Body, nil
}

func (g *S3Gateway) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error {
	contentType, body := detectContentType(key, reader)
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return s3Fault("put", bucket, key, err)
	}
	return nil
}

func (g *S3Gateway) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return nil
	}
	f := s3Fault("delete", bucket, key, err)
	if isNotFoundCode(f.Code) {
		return nil
	}
	return f
}

// s3Fault classifies err: smithy API errors carry a service error code and
// are request faults; everything else is a transport fault
func s3Fault(op, bucket, key string, err error) *Fault {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return newFault("s3."+op, bucket, key, FaultRequest, apiErr.ErrorCode(), err)
	}
	return newFault("s3."+op, bucket, key, FaultTransport, "", err)
}

var _ StorageGateway = (*S3Gateway)(nil)
