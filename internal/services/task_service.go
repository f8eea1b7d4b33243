package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/utils"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskAccessDenied = errors.New("you do not have access to this task")
	ErrNotTaskCreator   = errors.New("only the task creator can perform this action")
	ErrTaskNameRequired = errors.New("task name is required")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrFileNotFound     = errors.New("file not found")
)

// Delete cascade step names
const (
	StepCollectComments = "collect:comments"
	StepDeleteObjects   = "delete:objects"
	StepDeleteComments  = "delete:comments"
	StepDeleteTask      = "delete:task"
	StepRemoteCreate    = "remote:create"
	StepRemoteUpdate    = "remote:update"
	StepRemoteDelete    = "remote:delete"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	commentRepo repository.CommentRepository
	attachments *AttachmentService
	remote      RemoteTasks
	now         func() time.Time
}

// NewTaskService creates a new TaskService. remote may be nil.
func NewTaskService(taskRepo repository.TaskRepository, commentRepo repository.CommentRepository, attachments *AttachmentService, remote RemoteTasks) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		commentRepo: commentRepo,
		attachments: attachments,
		remote:      remote,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	// ID is optional; callers replicating a task from another store pass its id through.
	ID          string
	Name        string
	Description string
	CreatedBy   string
	AssignedTo  []string
	FileKey     string
}

// CreateTaskResult is the created task plus the outcome of each side write.
type CreateTaskResult struct {
	Task  *models.Task
	Steps []repository.StepResult
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Name        string
	Description string
	AssignedTo  []string
}

// CreateTask writes the task locally and forwards it to the remote API when one is configured.
func (s *TaskService) CreateTask(ctx context.Context, actor Actor, input CreateTaskInput) (*CreateTaskResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = constants.DefaultTaskName
	}
	createdBy := strings.TrimSpace(input.CreatedBy)
	if createdBy == "" {
		createdBy = actor.UserID
	}
	if createdBy == "" {
		createdBy = "unknown"
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}

	task := &models.Task{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   createdBy,
		AssignedTo:  utils.NormalizeIDs(input.AssignedTo),
		CreatedAt:   s.now(),
	}
	if key := strings.TrimSpace(input.FileKey); key != "" {
		task.FileKey = &key
		if url := s.attachments.ObjectURL(key); url != "" {
			task.FileURL = &url
		}
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	result := &CreateTaskResult{Task: task, Steps: created.Assignments}
	if s.remote != nil {
		if err := s.remote.CreateTask(ctx, actor.Token, task); err != nil {
			slog.Warn("failed to forward task to remote API", "task_id", task.ID, "error", err)
			result.Steps = append(result.Steps, repository.StepFailed(StepRemoteCreate, err))
		} else {
			result.Steps = append(result.Steps, repository.StepOK(StepRemoteCreate))
		}
	}

	return result, nil
}

// ListTasks returns every task from the authoritative source. A reachable remote API
// replaces the local list for this call.
func (s *TaskService) ListTasks(ctx context.Context, actor Actor) ([]models.Task, Source, error) {
	if s.remote != nil {
		tasks, err := s.remote.ListTasks(ctx, actor.Token)
		if err == nil {
			return tasks, SourceRemote, nil
		}
		slog.Warn("remote task list failed, using local store", "error", err)
	}

	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, SourceLocal, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, SourceLocal, nil
}

// VisibleTasks returns the tasks the actor created or is assigned to, newest first.
func (s *TaskService) VisibleTasks(ctx context.Context, actor Actor) ([]models.Task, Source, error) {
	tasks, source, err := s.ListTasks(ctx, actor)
	if err != nil {
		return nil, source, err
	}
	return FilterVisible(tasks, actor.UserID), source, nil
}

// FilterVisible keeps the tasks visible to userID and orders them newest first.
func FilterVisible(tasks []models.Task, userID string) []models.Task {
	visible := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsVisibleTo(userID) {
			visible = append(visible, t)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible
}

// GetTask looks the task up locally, then in the remote list.
func (s *TaskService) GetTask(ctx context.Context, actor Actor, id string) (*models.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrTaskNotFound
	}

	task, err := s.taskRepo.FindByID(ctx, id)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if s.remote != nil {
		tasks, err := s.remote.ListTasks(ctx, actor.Token)
		if err != nil {
			slog.Warn("remote task lookup failed", "task_id", id, "error", err)
			return nil, ErrTaskNotFound
		}
		for i := range tasks {
			if tasks[i].ID == id {
				return &tasks[i], nil
			}
		}
	}
	return nil, ErrTaskNotFound
}

// AuthorizeTask returns the task when the actor created it or is assigned to it.
func (s *TaskService) AuthorizeTask(ctx context.Context, actor Actor, id string) (*models.Task, error) {
	task, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !task.IsVisibleTo(actor.UserID) {
		return nil, ErrTaskAccessDenied
	}
	return task, nil
}

// UpdateTask rewrites name, description and assignees. Only the creator may update.
func (s *TaskService) UpdateTask(ctx context.Context, actor Actor, id string, input UpdateTaskInput) (*models.Task, []repository.StepResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, ErrTaskNameRequired
	}

	task, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if !task.IsCreator(actor.UserID) {
		return nil, nil, ErrNotTaskCreator
	}

	task.Name = name
	task.Description = strings.TrimSpace(input.Description)
	task.AssignedTo = utils.NormalizeIDs(input.AssignedTo)

	localErr := s.taskRepo.Update(ctx, task)
	if localErr != nil && !errors.Is(localErr, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to update task: %w", localErr)
	}

	var steps []repository.StepResult
	if s.remote != nil {
		if err := s.remote.UpdateTask(ctx, actor.Token, task); err != nil {
			slog.Warn("failed to forward task update to remote API", "task_id", task.ID, "error", err)
			steps = append(steps, repository.StepFailed(StepRemoteUpdate, err))
			if localErr != nil {
				return nil, steps, fmt.Errorf("failed to update task: %w", err)
			}
		} else {
			steps = append(steps, repository.StepOK(StepRemoteUpdate))
		}
	} else if localErr != nil {
		return nil, nil, ErrTaskNotFound
	}

	return task, steps, nil
}

// DeleteReport records every step of a task deletion.
type DeleteReport struct {
	TaskID     string                  `json:"taskId"`
	Keys       []string                `json:"keys"`
	FailedKeys []string                `json:"failedKeys,omitempty"`
	Steps      []repository.StepResult `json:"steps"`
}

// Deleted reports whether the task record is gone from at least one store.
func (r *DeleteReport) Deleted() bool {
	for _, s := range r.Steps {
		if s.OK && (s.Step == StepDeleteTask || s.Step == StepRemoteDelete) {
			return true
		}
	}
	return false
}

func (r *DeleteReport) record(step string, err error) {
	if err != nil {
		r.Steps = append(r.Steps, repository.StepFailed(step, err))
		return
	}
	r.Steps = append(r.Steps, repository.StepOK(step))
}

// DeleteTask removes a task with its comments and attachment objects. Only the initial
// lookup is fatal; every later step is attempted regardless and recorded in the report.
func (s *TaskService) DeleteTask(ctx context.Context, actor Actor, id string) (*DeleteReport, error) {
	task, err := s.AuthorizeTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{TaskID: task.ID, Keys: []string{}}
	if key := task.AttachmentKey(); key != "" {
		report.Keys = append(report.Keys, key)
	}

	comments, err := s.commentRepo.ListByTask(ctx, task.ID)
	if err != nil {
		slog.Warn("failed to list comments for delete", "task_id", task.ID, "error", err)
	} else {
		for _, c := range comments {
			for _, a := range c.Attachments() {
				report.Keys = append(report.Keys, a.Key)
			}
		}
	}
	report.record(StepCollectComments, err)

	if len(report.Keys) > 0 {
		failed, err := s.attachments.DeleteAll(ctx, report.Keys)
		if err != nil {
			slog.Warn("failed to delete task attachments", "task_id", task.ID, "failed", len(failed), "error", err)
			report.FailedKeys = failed
		}
		report.record(StepDeleteObjects, err)
	}

	_, err = s.commentRepo.DeleteByTask(ctx, task.ID)
	if err != nil {
		slog.Warn("failed to delete task comments", "task_id", task.ID, "error", err)
	}
	report.record(StepDeleteComments, err)

	err = s.taskRepo.Delete(ctx, task.ID)
	if err != nil {
		slog.Warn("failed to delete task record", "task_id", task.ID, "error", err)
	}
	report.record(StepDeleteTask, err)

	if s.remote != nil {
		err := s.remote.DeleteTask(ctx, actor.Token, task.ID)
		if err != nil {
			slog.Warn("failed to notify remote API of delete", "task_id", task.ID, "error", err)
		}
		report.record(StepRemoteDelete, err)
	}

	return report, nil
}

// FileEntry is one attachment in a task's file listing.
type FileEntry struct {
	Source     string    `json:"source"`
	TaskID     string    `json:"taskId"`
	CommentID  string    `json:"commentId,omitempty"`
	Index      int       `json:"index"`
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// TaskFiles lists the task's own attachment and every comment attachment under it,
// newest first, with 60 second signed URLs.
func (s *TaskService) TaskFiles(ctx context.Context, task *models.Task) []FileEntry {
	var entries []FileEntry
	if key := task.AttachmentKey(); key != "" {
		entries = append(entries, FileEntry{
			Source:     "task",
			TaskID:     task.ID,
			Key:        key,
			Name:       models.DisplayName(key),
			UploadedBy: task.CreatedBy,
			UploadedAt: task.CreatedAt,
		})
	}

	comments, err := s.commentRepo.ListByTask(ctx, task.ID)
	if err != nil {
		slog.Warn("failed to list comments for files", "task_id", task.ID, "error", err)
	}
	for _, c := range comments {
		for i, a := range c.Attachments() {
			entries = append(entries, FileEntry{
				Source:     "comment",
				TaskID:     task.ID,
				CommentID:  c.ID,
				Index:      i,
				Key:        a.Key,
				Name:       a.Name,
				UploadedBy: c.UserID,
				UploadedAt: c.CreatedAt,
			})
		}
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	urls := s.attachments.ResolveURLs(ctx, keys, constants.ListURLTTL)
	for i := range entries {
		entries[i].URL = urls[i]
		if entries[i].URL == "" && entries[i].Source == "task" && task.FileURL != nil {
			entries[i].URL = *task.FileURL
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UploadedAt.After(entries[j].UploadedAt)
	})
	return entries
}

// TaskURLs signs each task's own attachment for a list view. Tasks whose key cannot be
// signed get their stored URL instead.
func (s *TaskService) TaskURLs(ctx context.Context, tasks []models.Task) map[string]string {
	keys := make([]string, len(tasks))
	for i := range tasks {
		keys[i] = tasks[i].AttachmentKey()
	}
	urls := s.attachments.ResolveURLs(ctx, keys, constants.ListURLTTL)

	out := make(map[string]string, len(tasks))
	for i, t := range tasks {
		switch {
		case urls[i] != "":
			out[t.ID] = urls[i]
		case t.FileURL != nil && *t.FileURL != "":
			out[t.ID] = *t.FileURL
		}
	}
	return out
}

// DownloadURL signs one attachment of the task for direct download. With an empty
// commentID it targets the task's own attachment.
func (s *TaskService) DownloadURL(ctx context.Context, task *models.Task, commentID string, fileIndex int) (string, error) {
	var key string
	if commentID == "" {
		key = task.AttachmentKey()
	} else {
		comment, err := s.commentRepo.FindByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrCommentNotFound
			}
			return "", fmt.Errorf("failed to find comment: %w", err)
		}
		if comment.TaskID != task.ID {
			return "", ErrCommentNotFound
		}
		attachments := comment.Attachments()
		if fileIndex < 0 || fileIndex >= len(attachments) {
			return "", ErrFileNotFound
		}
		key = attachments[fileIndex].Key
	}
	if key == "" {
		return "", ErrFileNotFound
	}

	url, err := s.attachments.SignedURL(ctx, key, constants.DownloadURLTTL)
	if err != nil {
		if commentID == "" && task.FileURL != nil && *task.FileURL != "" {
			slog.Warn("failed to sign download, using stored url", "task_id", task.ID, "key", key, "error", err)
			return *task.FileURL, nil
		}
		return "", err
	}
	return url, nil
}

// AuthorizeKey finds the task owning key and checks the actor may see it.
func (s *TaskService) AuthorizeKey(ctx context.Context, actor Actor, key string) (*models.Task, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return nil, ErrFileNotFound
	}

	tasks, _, err := s.ListTasks(ctx, actor)
	if err != nil {
		return nil, err
	}

	owner := func() *models.Task {
		for i := range tasks {
			if tasks[i].AttachmentKey() == key {
				return &tasks[i]
			}
		}
		for i := range tasks {
			comments, err := s.commentRepo.ListByTask(ctx, tasks[i].ID)
			if err != nil {
				continue
			}
			for _, c := range comments {
				for _, a := range c.Attachments() {
					if a.Key == key {
						return &tasks[i]
					}
				}
			}
		}
		return nil
	}()

	if owner == nil {
		return nil, ErrFileNotFound
	}
	if !owner.IsVisibleTo(actor.UserID) {
		return nil, ErrTaskAccessDenied
	}
	return owner, nil
}
