// Package blobstore is a thin contract over an external object-storage
// service. The metadata layer stays the source of truth for user-visible
// existence; this gateway only moves bytes and mints retrieval URLs.
package blobstore

import (
	"context"
	"io"
	"time"
)

// Gateway is the blob-store surface consumed by the services. Every call is
// bounded by the implementation's configured timeout; a timed-out call is
// indistinguishable from any other storage failure for the caller.
type Gateway interface {
	// Put streams body into the store under key, refusing to overwrite an
	// existing object.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error

	// RemoveMany deletes the given keys in one batched call and returns the
	// keys that could not be removed, if any.
	RemoveMany(ctx context.Context, keys []string) ([]string, error)

	// SignedURL returns a time-limited retrieval URL for key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
