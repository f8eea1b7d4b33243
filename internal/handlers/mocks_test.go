package handlers

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"
)

var mockAny = mock.Anything

func mockKeyPrefix(prefix string) any {
	return mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, body, size, contentType).Error(0)
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, contentType, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) DeleteObjects(ctx context.Context, keys []string) ([]string, error) {
	args := m.Called(ctx, keys)
	var failed []string
	if v := args.Get(0); v != nil {
		failed = v.([]string)
	}
	return failed, args.Error(1)
}

func (m *mockObjectStore) ObjectURL(key string) string {
	return "https://bucket.s3.us-east-1.amazonaws.com/" + key
}
