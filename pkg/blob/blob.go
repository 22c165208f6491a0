// Package blob provides the external object-store client for Better Drive.
//
// File bytes never live in the relational database: they are addressed by an
// opaque storage key in an S3-compatible bucket (AWS S3, MinIO, R2, Spaces).
// The delete orchestrators in app/services consume this package through the
// Store interface so tests can inject a fake.
package blob

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
)

// Store is the blob-store capability consumed by the core services.
type Store interface {
	// Put uploads content under key and returns the public URL.
	Put(ctx context.Context, key, contentType string, content io.Reader) (string, error)

	// DeleteObjects removes every key in one logical batch operation.
	// Partial failures are reported as a single error; callers decide
	// whether the failure aborts their operation.
	DeleteObjects(ctx context.Context, keys []string) error

	// URL returns the public URL for an existing key.
	URL(key string) string
}

// NewKey generates an opaque 32-hex-char storage key.
func NewKey() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
