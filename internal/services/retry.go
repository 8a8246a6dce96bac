package services

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/damacus/iron-sync/internal/models"
)

// DefaultRetryBackoff is the first wait between attempts
const DefaultRetryBackoff = 500 * time.Millisecond

// RetryNotify is called before each retry with the failed operation, its error and the wait
type RetryNotify func(op string, err error, wait time.Duration)

// RetryGateway retries transport faults of the wrapped gateway with exponential backoff.
// Request faults are returned after the first attempt.
type RetryGateway struct {
	next     StorageGateway
	attempts int
	initial  time.Duration
	notify   RetryNotify
}

// NewRetryGateway wraps next so each call is tried at most attempts times.
// attempts <= 1 returns next unchanged.
func NewRetryGateway(next StorageGateway, attempts int, initial time.Duration, notify RetryNotify) StorageGateway {
	if attempts <= 1 {
		return next
	}
	if initial <= 0 {
		initial = DefaultRetryBackoff
	}
	return &RetryGateway{next: next, attempts: attempts, initial: initial, notify: notify}
}

func (g *RetryGateway) ListObjects(ctx context.Context, bucket, continuationToken string) (models.ObjectPage, error) {
	var page models.ObjectPage
	err := g.retry(ctx, "list", func() error {
		var err error
		page, err = g.next.ListObjects(ctx, bucket, continuationToken)
		return err
	})
	return page, err
}

func (g *RetryGateway) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := g.retry(ctx, "get", func() error {
		var err error
		rc, err = g.next.GetObject(ctx, bucket, key)
		return err
	})
	return rc, err
}

// PutObject retries only when reader can be rewound
func (g *RetryGateway) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error {
	seeker, ok := reader.(io.Seeker)
	if !ok {
		return g.next.PutObject(ctx, bucket, key, reader, size)
	}
	start, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return g.next.PutObject(ctx, bucket, key, reader, size)
	}

	first := true
	return g.retry(ctx, "put", func() error {
		if !first {
			if _, err := seeker.Seek(start, io.SeekStart); err != nil {
				return backoff.Permanent(err)
			}
		}
		first = false
		return g.next.PutObject(ctx, bucket, key, reader, size)
	})
}

func (g *RetryGateway) DeleteObject(ctx context.Context, bucket, key string) error {
	return g.retry(ctx, "delete", func() error {
		return g.next.DeleteObject(ctx, bucket, key)
	})
}

func (g *RetryGateway) retry(ctx context.Context, op string, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.initial
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(g.attempts-1)), ctx)

	var notify backoff.Notify
	if g.notify != nil {
		notify = func(err error, wait time.Duration) { g.notify(op, err, wait) }
	}

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !IsTransportFault(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, notify)
}

var _ StorageGateway = (*RetryGateway)(nil)
