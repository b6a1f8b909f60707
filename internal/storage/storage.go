// Package storage abstracts the object store behind the ingestion pipeline.
// The core never assumes a concrete backend: anything satisfying Adapter
// (local disk here, a bucket service in production) plugs in unchanged.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultSignedURLTTL is used when a caller does not override the expiry.
const DefaultSignedURLTTL = 3600 * time.Second

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidPath    = errors.New("invalid object path")
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// SignedLink is a time-limited pre-authorized URL. The expiry is always
// returned alongside the URL so clients can refresh proactively.
type SignedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Adapter is the storage contract consumed by the ingestion core.
// Put returns the durable public reference for the stored object.
type Adapter interface {
	Put(ctx context.Context, path string, r io.Reader) (string, error)
	Get(ctx context.Context, path string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, path string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (SignedLink, error)
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
}
