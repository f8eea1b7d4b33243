package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/database"
	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
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

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) ListTasks(ctx context.Context, token string) ([]models.Task, error) {
	args := m.Called(ctx, token)
	var tasks []models.Task
	if v := args.Get(0); v != nil {
		tasks = v.([]models.Task)
	}
	return tasks, args.Error(1)
}

func (m *mockRemote) CreateTask(ctx context.Context, token string, task *models.Task) error {
	return m.Called(ctx, token, task).Error(0)
}

func (m *mockRemote) UpdateTask(ctx context.Context, token string, task *models.Task) error {
	return m.Called(ctx, token, task).Error(0)
}

func (m *mockRemote) DeleteTask(ctx context.Context, token, taskID string) error {
	return m.Called(ctx, token, taskID).Error(0)
}

func (m *mockRemote) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	args := m.Called(ctx, token)
	var users []models.User
	if v := args.Get(0); v != nil {
		users = v.([]models.User)
	}
	return users, args.Error(1)
}

func (m *mockRemote) SearchUsers(ctx context.Context, token, query string) ([]models.User, error) {
	args := m.Called(ctx, token, query)
	var users []models.User
	if v := args.Get(0); v != nil {
		users = v.([]models.User)
	}
	return users, args.Error(1)
}

type stubIssuer struct{}

func (stubIssuer) Issue(userID, email, role string) (string, error) {
	return "token-" + userID, nil
}
