package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/damacus/iron-sync/internal/models"
)

// StorageGateway is the narrow view of an object store that the transfer engine consumes
type StorageGateway interface {
	// ListObjects returns the page of keys following continuationToken ("" for the first page)
	ListObjects(ctx context.Context, bucket, continuationToken string) (models.ObjectPage, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error
	// DeleteObject removes key. Deleting an absent key is not an error.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// FaultKind classifies a failed gateway call
type FaultKind string

const (
	// FaultTransport covers connectivity and SDK-level failures
	FaultTransport FaultKind = "transport"
	// FaultRequest covers requests the remote service rejected (access denied, not found, ...)
	FaultRequest FaultKind = "request"
)

// ErrObjectNotFound matches request faults for missing keys via errors.Is
var ErrObjectNotFound = errors.New("object not found")

// ErrAccessDenied matches request faults for permission denials via errors.Is
var ErrAccessDenied = errors.New("access denied")

// Fault is the error returned by every gateway implementation
type Fault struct {
	Op     string
	Bucket string
	Key    string
	Kind   FaultKind
	// Code is the service error code for request faults (e.g. "NoSuchKey")
	Code string
	Err  error
}

func (f *Fault) Error() string {
	target := f.Bucket
	if f.Key != "" {
		target += "/" + f.Key
	}
	if f.Code != "" {
		return fmt.Sprintf("%s %s: %s fault (%s): %v", f.Op, target, f.Kind, f.Code, f.Err)
	}
	return fmt.Sprintf("%s %s: %s fault: %v", f.Op, target, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Is lets errors.Is match the not-found and access-denied sentinels by service code
func (f *Fault) Is(target error) bool {
	switch target {
	case ErrObjectNotFound:
		return isNotFoundCode(f.Code)
	case ErrAccessDenied:
		return f.Code == "AccessDenied" || f.Code == "Forbidden"
	}
	return false
}

func newFault(op, bucket, key string, kind FaultKind, code string, err error) *Fault {
	return &Fault{Op: op, Bucket: bucket, Key: key, Kind: kind, Code: code, Err: err}
}

// KindOf returns the fault kind carried by err, or "" when err is not a gateway fault
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsTransportFault reports whether err is a transport-level gateway fault
func IsTransportFault(err error) bool {
	return KindOf(err) == FaultTransport
}

// IsRequestFault reports whether err was rejected by the remote service
func IsRequestFault(err error) bool {
	return KindOf(err) == FaultRequest
}

func isNotFoundCode(code string) bool {
	return code == "NoSuchKey" || code == "NotFound"
}
