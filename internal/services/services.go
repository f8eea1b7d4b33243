package services

import (
	"context"
	"errors"

	"github.com/yukikurage/taskflow/internal/models"
)

var (
	ErrMissingFields        = errors.New("missing required fields")
	ErrStorageNotConfigured = errors.New("file storage is not configured")
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID   string
	Username string
	// Token is forwarded to the remote task API as a bearer credential.
	Token string
}

// Source names where a result set came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// RemoteTasks is the task half of the remote task API. When configured, its
// task list is authoritative for the request.
type RemoteTasks interface {
	ListTasks(ctx context.Context, token string) ([]models.Task, error)
	CreateTask(ctx context.Context, token string, task *models.Task) error
	UpdateTask(ctx context.Context, token string, task *models.Task) error
	DeleteTask(ctx context.Context, token, taskID string) error
}

// RemoteUsers is the user half of the remote task API.
type RemoteUsers interface {
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	SearchUsers(ctx context.Context, token, query string) ([]models.User, error)
}
