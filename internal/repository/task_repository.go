package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create writes the task row first. Assignment rows are written afterwards, one at a
// time, and a failing row is recorded in the result instead of failing the create.
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) (CreateResult, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return CreateResult{}, translate(err)
	}

	result := CreateResult{Task: task}
	for _, userID := range task.AssignedTo {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		step := "assign:" + userID
		assignment := models.TaskAssignment{
			ID:         uuid.NewString(),
			TaskID:     task.ID,
			UserID:     userID,
			AssignedAt: task.CreatedAt,
		}
		if err := r.db.WithContext(ctx).Create(&assignment).Error; err != nil {
			slog.Warn("failed to write task assignment", "task_id", task.ID, "user_id", userID, "error", err)
			result.Assignments = append(result.Assignments, StepFailed(step, err))
			continue
		}
		result.Assignments = append(result.Assignments, StepOK(step))
	}

	return result, nil
}

func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// List returns every task, newest first. Visibility filtering is the caller's job.
func (r *GormTaskRepository) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update rewrites the mutable columns only, so the file key and creation time are kept.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", task.ID).
		Select("name", "description", "assigned_to").
		Updates(task)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task row. Assignment rows are left in place.
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
