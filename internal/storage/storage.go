package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotConfigured is returned when no bucket is configured.
var ErrNotConfigured = errors.New("storage: object store not configured")

// ObjectStore is the attachment backend.
type ObjectStore interface {
	// Put stores body under key
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// PresignGet returns a time-limited download URL for key
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PresignPut returns a time-limited upload URL for key
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// DeleteObjects removes keys in batches and returns the keys that could not be removed
	DeleteObjects(ctx context.Context, keys []string) ([]string, error)

	// ObjectURL returns the non-expiring URL recorded alongside a key
	ObjectURL(key string) string
}

// Chunk splits keys into batches of at most size entries.
func Chunk(keys []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		batches = append(batches, keys[start:end])
	}
	return batches
}
