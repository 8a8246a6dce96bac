package transfer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/damacus/iron-sync/internal/models"
)

// MockGateway implements services.StorageGateway for testing
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListObjects(ctx context.Context, bucket, continuationToken string) (models.ObjectPage, error) {
	args := m.Called(ctx, bucket, continuationToken)
	return args.Get(0).(models.ObjectPage), args.Error(1)
}

func (m *MockGateway) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockGateway) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error {
	args := m.Called(ctx, bucket, key, reader, size)
	return args.Error(0)
}

func (m *MockGateway) DeleteObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

// recordingLogger keeps every line written by the engine
type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Error(msg string, err error, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf("%s: %v", msg, err))
}

// countingProgress counts ticks across every phase it was started for
type countingProgress struct {
	started  []string
	ticks    int
	finished int
}

func (p *countingProgress) start(desc string) Progress {
	p.started = append(p.started, desc)
	return p
}

func (p *countingProgress) Add(n int) error {
	p.ticks += n
	return nil
}

func (p *countingProgress) Finish() error {
	p.finished++
	return nil
}
