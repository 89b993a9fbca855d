package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the envelope vault: an S3-compatible object
// store holding encrypted .medsecure envelopes. Implementations must rely
// on streaming I/O only; no local disk.

// ObjectInfo contains basic information about a stored envelope object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	Metadata     map[string]string
}

// Vault is the object storage client for encrypted envelopes.
type Vault interface {
	// Put stores an envelope under the given key. Metadata carries the
	// original (pre-encryption) file name for operator visibility; the
	// object body stays opaque.
	Put(ctx context.Context, key string, r io.Reader, size int64, metadata map[string]string) (ObjectInfo, error)
	// Get retrieves an envelope's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an envelope by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download
	// the envelope without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
