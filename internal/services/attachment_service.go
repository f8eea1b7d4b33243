package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/storage"
	"github.com/yukikurage/taskflow/internal/utils"
	"golang.org/x/sync/errgroup"
)

// AttachmentService wraps the object store with key generation and grouped signing.
type AttachmentService struct {
	store storage.ObjectStore
	now   func() time.Time
}

// NewAttachmentService creates an AttachmentService. store may be nil, in which case
// every operation reports ErrStorageNotConfigured.
func NewAttachmentService(store storage.ObjectStore) *AttachmentService {
	return &AttachmentService{store: store, now: time.Now}
}

func (s *AttachmentService) Configured() bool {
	return s != nil && s.store != nil
}

// NewKey generates the object key for an upload under prefix.
func (s *AttachmentService) NewKey(prefix, filename string) string {
	return utils.ObjectKey(prefix, filename, s.now())
}

// Upload stores body under a freshly generated key and returns the key.
func (s *AttachmentService) Upload(ctx context.Context, prefix, filename string, body io.Reader, size int64, contentType string) (string, error) {
	if !s.Configured() {
		return "", ErrStorageNotConfigured
	}
	key := s.NewKey(prefix, filename)
	if err := s.store.Put(ctx, key, body, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// PresignUpload returns an upload URL and the key the client must use.
func (s *AttachmentService) PresignUpload(ctx context.Context, filename, contentType string) (string, string, error) {
	if !s.Configured() {
		return "", "", ErrStorageNotConfigured
	}
	key := s.NewKey(constants.TaskKeyPrefix, filename)
	url, err := s.store.PresignPut(ctx, key, contentType, constants.PresignURLTTL)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

func (s *AttachmentService) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !s.Configured() {
		return "", ErrStorageNotConfigured
	}
	return s.store.PresignGet(ctx, key, ttl)
}

// ResolveURLs signs every key concurrently. The result is index-aligned with keys and a
// key that cannot be signed gets an empty URL.
func (s *AttachmentService) ResolveURLs(ctx context.Context, keys []string, ttl time.Duration) []string {
	urls := make([]string, len(keys))
	if !s.Configured() || len(keys) == 0 {
		return urls
	}

	var g errgroup.Group
	for i, key := range keys {
		if key == "" {
			continue
		}
		g.Go(func() error {
			url, err := s.store.PresignGet(ctx, key, ttl)
			if err != nil {
				slog.Warn("failed to sign attachment url", "key", key, "error", err)
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	_ = g.Wait()

	return urls
}

// DeleteAll removes keys and returns those that could not be removed.
func (s *AttachmentService) DeleteAll(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return keys, ErrStorageNotConfigured
	}
	failed, err := s.store.DeleteObjects(ctx, keys)
	if err != nil {
		return failed, fmt.Errorf("failed to delete attachments: %w", err)
	}
	return nil, nil
}

// ObjectURL returns the non-expiring URL for key, or "" when storage is not configured.
func (s *AttachmentService) ObjectURL(key string) string {
	if !s.Configured() || key == "" {
		return ""
	}
	return s.store.ObjectURL(key)
}
