package services

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names a StorageGateway implementation
type Backend string

const (
	BackendS3    Backend = "s3"
	BackendMinio Backend = "minio"
)

// ParseBackend accepts the backend names used in configuration
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", BackendS3, "aws":
		return BackendS3, nil
	case BackendMinio:
		return BackendMinio, nil
	}
	return "", fmt.Errorf("unknown storage backend %q (want s3 or minio)", name)
}

// GatewayOptions selects and tunes the gateway built by NewGateway
type GatewayOptions struct {
	Backend       Backend
	Credentials   Credentials
	PageSize      int
	RetryAttempts int
	RetryBackoff  time.Duration
	OnRetry       RetryNotify
	// MinioFactory overrides the client factory for the minio backend
	MinioFactory MinioClientFactory
}

// NewGateway builds the configured backend, wrapped in a RetryGateway when retries are enabled
func NewGateway(ctx context.Context, opts GatewayOptions) (StorageGateway, error) {
	var gw StorageGateway

	switch opts.Backend {
	case BackendMinio:
		if opts.Credentials.Endpoint == "" {
			return nil, fmt.Errorf("minio backend requires an endpoint")
		}
		factory := opts.MinioFactory
		if factory == nil {
			factory = &RealMinioFactory{}
		}
		client, err := factory.NewClient(opts.Credentials)
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		gw = NewMinioGateway(client, opts.PageSize)
	case BackendS3, "":
		client, err := NewS3Client(ctx, opts.Credentials)
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		gw = NewS3Gateway(client, opts.PageSize)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}

	return NewRetryGateway(gw, opts.RetryAttempts, opts.RetryBackoff, opts.OnRetry), nil
}
