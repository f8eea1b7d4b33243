package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("repository: duplicate record")
)

// StepResult records the outcome of one best-effort sub-operation.
type StepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func StepOK(step string) StepResult {
	return StepResult{Step: step, OK: true}
}

func StepFailed(step string, err error) StepResult {
	return StepResult{Step: step, Error: err.Error()}
}

// CreateResult is returned by TaskRepository.Create. Assignment failures never fail the create.
type CreateResult struct {
	Task        *models.Task
	Assignments []StepResult
}

// FailedAssignments counts assignment rows that could not be written.
func (r CreateResult) FailedAssignments() int {
	n := 0
	for _, s := range r.Assignments {
		if !s.OK {
			n++
		}
	}
	return n
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user. A unique-key violation returns ErrDuplicate.
	Create(ctx context.Context, user *models.User) error

	FindByID(ctx context.Context, id string) (*models.User, error)

	FindByEmail(ctx context.Context, email string) (*models.User, error)

	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// TouchLastLogin sets the user's last-login timestamp
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	// List returns every user
	List(ctx context.Context) ([]models.User, error)

	// Search matches username or email case-insensitively
	Search(ctx context.Context, query string) ([]models.User, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create writes the task, then one assignment row per assignee
	Create(ctx context.Context, task *models.Task) (CreateResult, error)

	FindByID(ctx context.Context, id string) (*models.Task, error)

	// List returns every task, newest first
	List(ctx context.Context) ([]models.Task, error)

	// Update rewrites name, description and assignees
	Update(ctx context.Context, task *models.Task) error

	Delete(ctx context.Context, id string) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error

	FindByID(ctx context.Context, id string) (*models.Comment, error)

	// ListByTask returns the task's comments, newest first
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)

	// DeleteByTask removes every comment of a task and reports how many were removed
	DeleteByTask(ctx context.Context, taskID string) (int64, error)
}

// translate maps gorm errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
