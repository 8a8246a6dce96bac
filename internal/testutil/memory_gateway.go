// Package testutil provides an in-memory StorageGateway for tests of the
// transfer engine and everything layered on it.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/damacus/iron-sync/internal/models"
	"github.com/damacus/iron-sync/internal/services"
)

// MemoryGateway stores objects of any number of buckets in memory and pages
// listings with StartAfter markers like the MinIO backend.
// Failures can be injected per key and operation.
type MemoryGateway struct {
	mu       sync.Mutex
	buckets  map[string]map[string][]byte
	pageSize int

	// GetErr, PutErr and DeleteErr fail the operation for the mapped key
	GetErr    map[string]error
	PutErr    map[string]error
	DeleteErr map[string]error
	// ListErr fails every listing call made after ListErrAfter successful pages
	ListErr      error
	ListErrAfter int

	// Calls counts gateway calls by operation name
	Calls map[string]int
}

// NewMemoryGateway returns an empty gateway listing pageSize keys per page
func NewMemoryGateway(pageSize int) *MemoryGateway {
	if pageSize <= 0 {
		pageSize = services.DefaultPageSize
	}
	return &MemoryGateway{
		buckets:   make(map[string]map[string][]byte),
		pageSize:  pageSize,
		GetErr:    make(map[string]error),
		PutErr:    make(map[string]error),
		DeleteErr: make(map[string]error),
		Calls:     make(map[string]int),
	}
}

// Seed stores content under key, creating the bucket if needed
func (g *MemoryGateway) Seed(bucket, key string, content []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bucket(bucket)[key] = append([]byte(nil), content...)
}

// Object returns the stored content of key
func (g *MemoryGateway) Object(bucket, key string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.buckets[bucket][key]
	return b, ok
}

// Keys returns the sorted keys of bucket
func (g *MemoryGateway) Keys(bucket string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sortedKeys(bucket)
}

// TotalCalls returns the number of gateway calls of any kind
func (g *MemoryGateway) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.Calls {
		n += c
	}
	return n
}

func (g *MemoryGateway) ListObjects(ctx context.Context, bucket, continuationToken string) (models.ObjectPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls["list"]++

	if err := ctx.Err(); err != nil {
		return models.ObjectPage{}, err
	}
	if g.ListErr != nil && g.Calls["list"] > g.ListErrAfter {
		return models.ObjectPage{}, transportFault("list", bucket, "", g.ListErr)
	}

	keys := g.sortedKeys(bucket)
	start := sort.SearchStrings(keys, continuationToken)
	if continuationToken != "" && start < len(keys) && keys[start] == continuationToken {
		start++
	}

	end := start + g.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	page := models.ObjectPage{Objects: make([]models.ObjectEntry, 0, end-start)}
	for _, k := range keys[start:end] {
		page.Objects = append(page.Objects, models.ObjectEntry{
			Key:          k,
			Size:         int64(len(g.buckets[bucket][k])),
			LastModified: time.Unix(0, 0).UTC(),
		})
	}
	if end < len(keys) {
		page.NextToken = keys[end-1]
	}
	return page, nil
}

func (g *MemoryGateway) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls["get"]++

	if err, ok := g.GetErr[key]; ok {
		return nil, err
	}
	content, ok := g.buckets[bucket][key]
	if !ok {
		return nil, NotFound("get", bucket, key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (g *MemoryGateway) PutObject(_ context.Context, bucket, key string, reader io.Reader, _ int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls["put"]++

	if err, ok := g.PutErr[key]; ok {
		return err
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return transportFault("put", bucket, key, err)
	}
	g.bucket(bucket)[key] = content
	return nil
}

func (g *MemoryGateway) DeleteObject(_ context.Context, bucket, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls["delete"]++

	if err, ok := g.DeleteErr[key]; ok {
		return err
	}
	delete(g.bucket(bucket), key)
	return nil
}

func (g *MemoryGateway) bucket(name string) map[string][]byte {
	b, ok := g.buckets[name]
	if !ok {
		b = make(map[string][]byte)
		g.buckets[name] = b
	}
	return b
}

func (g *MemoryGateway) sortedKeys(bucket string) []string {
	keys := make([]string, 0, len(g.buckets[bucket]))
	for k := range g.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NotFound builds the request fault a backend returns for a missing key
func NotFound(op, bucket, key string) error {
	return &services.Fault{
		Op: "memory." + op, Bucket: bucket, Key: key,
		Kind: services.FaultRequest, Code: "NoSuchKey",
		Err: errors.New("the specified key does not exist"),
	}
}

// Unreachable builds a transport fault for op on key
func Unreachable(op, bucket, key string) error {
	return transportFault(op, bucket, key, errors.New("connection refused"))
}

func transportFault(op, bucket, key string, err error) error {
	return &services.Fault{
		Op: "memory." + op, Bucket: bucket, Key: key,
		Kind: services.FaultTransport,
		Err:  err,
	}
}

var _ services.StorageGateway = (*MemoryGateway)(nil)
