package functions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/services"
)

type taskBody struct {
	TaskID          string     `json:"taskId"`
	TaskName        string     `json:"taskName"`
	TaskDescription string     `json:"taskDescription"`
	CreatedBy       string     `json:"createdBy"`
	AssignedUsers   stringList `json:"assignedUsers"`
	FileKey         string     `json:"fileKey"`
}

// CreateTask stores a task. The caller is not required to authenticate; a missing
// name becomes "Untitled" and a missing creator "unknown".
func (f *Functions) CreateTask(ctx context.Context, req Request) Response {
	var body taskBody
	if err := req.decode(&body); err != nil {
		return failure(http.StatusBadRequest, "Invalid request body")
	}

	actor, _ := f.authenticate(req)
	createdBy := body.CreatedBy
	if createdBy == "" {
		createdBy = actor.UserID
	}
	if createdBy == "" {
		createdBy = "unknown"
	}

	result, err := f.tasks.CreateTask(ctx, actor, services.CreateTaskInput{
		ID:          body.TaskID,
		Name:        body.TaskName,
		Description: body.TaskDescription,
		CreatedBy:   createdBy,
		AssignedTo:  body.AssignedUsers,
		FileKey:     body.FileKey,
	})
	if err != nil {
		slog.Error("create task failed", "error", err)
		return failure(http.StatusInternalServerError, "Could not create task")
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"success": true,
		"task":    result.Task,
		"steps":   result.Steps,
	})
}

// ListTasks returns every task. Visibility filtering is left to the caller.
func (f *Functions) ListTasks(ctx context.Context, req Request) Response {
	actor, ok := f.authenticate(req)
	if !ok {
		return failure(http.StatusUnauthorized, "Authentication required")
	}

	tasks, _, err := f.tasks.ListTasks(ctx, actor)
	if err != nil {
		slog.Error("list tasks failed", "error", err)
		return failure(http.StatusInternalServerError, "Could not list tasks")
	}
	return jsonResponse(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(tasks),
		"tasks":   tasks,
	})
}

func (f *Functions) UpdateTask(ctx context.Context, req Request) Response {
	actor, ok := f.authenticate(req)
	if !ok {
		return failure(http.StatusUnauthorized, "Authentication required")
	}

	var body taskBody
	if err := req.decode(&body); err != nil {
		return failure(http.StatusBadRequest, "Invalid request body")
	}

	task, _, err := f.tasks.UpdateTask(ctx, actor, req.PathParams["id"], services.UpdateTaskInput{
		Name:        body.TaskName,
		Description: body.TaskDescription,
		AssignedTo:  body.AssignedUsers,
	})
	if err != nil {
		return taskFailure(err)
	}
	return jsonResponse(http.StatusOK, map[string]any{"success": true, "task": task})
}

func (f *Functions) DeleteTask(ctx context.Context, req Request) Response {
	actor, ok := f.authenticate(req)
	if !ok {
		return failure(http.StatusUnauthorized, "Authentication required")
	}

	report, err := f.tasks.DeleteTask(ctx, actor, req.PathParams["id"])
	if err != nil {
		return taskFailure(err)
	}

	status := http.StatusOK
	if !report.Deleted() {
		status = http.StatusInternalServerError
	}
	return jsonResponse(status, map[string]any{"success": report.Deleted(), "report": report})
}

func taskFailure(err error) Response {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return failure(http.StatusNotFound, "Task not found")
	case errors.Is(err, services.ErrTaskAccessDenied), errors.Is(err, services.ErrNotTaskCreator):
		return failure(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrTaskNameRequired):
		return failure(http.StatusBadRequest, "Task name is required")
	default:
		slog.Error("task function failed", "error", err)
		return failure(http.StatusInternalServerError, "Internal server error")
	}
}

func (f *Functions) PresignUpload(ctx context.Context, req Request) Response {
	filename := req.Query["filename"]
	if filename == "" {
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": "filename required"})
	}
	contentType := req.Query["contentType"]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, key, err := f.attachments.PresignUpload(ctx, filename, contentType)
	if err != nil {
		slog.Error("presign upload failed", "filename", filename, "error", err)
		return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "Could not create presigned URL"})
	}
	return jsonResponse(http.StatusOK, map[string]string{"url": url, "key": key})
}

func (f *Functions) PresignDownload(ctx context.Context, req Request) Response {
	key := req.Query["key"]
	if key == "" {
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": "key required"})
	}

	url, err := f.attachments.SignedURL(ctx, key, constants.PresignURLTTL)
	if err != nil {
		slog.Error("presign download failed", "key", key, "error", err)
		return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "Could not create presigned download URL"})
	}
	return jsonResponse(http.StatusOK, map[string]string{"url": url})
}
