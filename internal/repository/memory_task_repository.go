package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskflow/internal/models"
)

// MemoryTaskRepository keeps tasks in process memory. Contents are lost on restart.
// It is selected with TASK_STORE=memory and used by tests.
type MemoryTaskRepository struct {
	mu          sync.RWMutex
	tasks       map[string]models.Task
	assignments []models.TaskAssignment
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[string]models.Task)}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task *models.Task) (CreateResult, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return CreateResult{}, ErrDuplicate
	}
	r.tasks[task.ID] = cloneTask(*task)

	result := CreateResult{Task: task}
	for _, userID := range task.AssignedTo {
		if userID == "" {
			continue
		}
		r.assignments = append(r.assignments, models.TaskAssignment{
			ID:         uuid.NewString(),
			TaskID:     task.ID,
			UserID:     userID,
			AssignedAt: task.CreatedAt,
		})
		result.Assignments = append(result.Assignments, StepOK("assign:"+userID))
	}
	return result, nil
}

func (r *MemoryTaskRepository) FindByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	t := cloneTask(task)
	return &t, nil
}

func (r *MemoryTaskRepository) List(_ context.Context) ([]models.Task, error) {
	r.mu.RLock()
	tasks := make([]models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, cloneTask(t))
	}
	r.mu.RUnlock()

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[task.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = task.Name
	existing.Description = task.Description
	existing.AssignedTo = append([]string(nil), task.AssignedTo...)
	r.tasks[task.ID] = existing
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

// Assignments returns a copy of the recorded assignment rows.
func (r *MemoryTaskRepository) Assignments() []models.TaskAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.TaskAssignment(nil), r.assignments...)
}

func cloneTask(t models.Task) models.Task {
	t.AssignedTo = append([]string(nil), t.AssignedTo...)
	return t
}
