package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/dto"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/utils"
)

type TaskHandler struct {
	taskService    *services.TaskService
	commentService *services.CommentService
	userService    *services.UserService
}

func NewTaskHandler(taskService *services.TaskService, commentService *services.CommentService, userService *services.UserService) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		commentService: commentService,
		userService:    userService,
	}
}

// NewTask renders the create-task form with the user picker.
func (h *TaskHandler) NewTask(c *gin.Context) {
	render(c, http.StatusOK, "create-task.html", gin.H{
		"Title": "Create Task",
		"Users": h.pickerUsers(c),
	})
}

// CreateTask creates a task from the form and redirects to the task list.
// fileKey is the object key of a file already uploaded through /presign-upload.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	input := services.CreateTaskInput{
		Name:        c.PostForm("taskName"),
		Description: c.PostForm("taskDescription"),
		CreatedBy:   actor.UserID,
		AssignedTo:  utils.GetAssignedUsers(c, "assignedUsers"),
		FileKey:     c.PostForm("fileKey"),
	}

	result, err := h.taskService.CreateTask(c.Request.Context(), actor, input)
	if err != nil {
		slog.Error("failed to create task", "user_id", actor.UserID, "error", err)
		render(c, http.StatusInternalServerError, "create-task.html", gin.H{
			"Title":   "Create Task",
			"Users":   h.pickerUsers(c),
			"Message": "Error creating task. Please try again.",
			"FormData": formData{
				Name:          input.Name,
				Description:   input.Description,
				AssignedUsers: c.PostForm("assignedUsers"),
			},
		})
		return
	}

	for _, step := range result.Steps {
		if !step.OK {
			slog.Warn("task created with failed side write", "task_id", result.Task.ID, "step", step.Step, "error", step.Error)
		}
	}
	c.Redirect(http.StatusFound, "/view-tasks")
}

// ListTasks renders the tasks visible to the session user, newest first.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)

	tasks, source, err := h.taskService.VisibleTasks(ctx, actor)
	if err != nil {
		slog.Error("failed to list tasks", "user_id", actor.UserID, "error", err)
	}

	names := h.userService.NameLookup(ctx, actor)
	urls := h.taskService.TaskURLs(ctx, tasks)

	render(c, http.StatusOK, "view-tasks.html", gin.H{
		"Title":  "Your Tasks",
		"Tasks":  dto.ToTaskViews(tasks, names, urls, actor.UserID),
		"Source": source,
	})
}

// GetTask renders the task with its comments. Requires RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		NotFound(c)
		return
	}
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)

	comments, err := h.commentService.ListForTask(ctx, task.ID)
	if err != nil {
		slog.Warn("failed to load comments", "task_id", task.ID, "error", err)
	}
	names := h.userService.NameLookup(ctx, actor)
	urls := h.taskService.TaskURLs(ctx, []models.Task{*task})

	render(c, http.StatusOK, "task-detail.html", gin.H{
		"Title":    task.Name,
		"Task":     dto.ToTaskView(*task, names, urls[task.ID], actor.UserID),
		"Comments": dto.ToCommentViews(comments, names),
	})
}

// TaskFiles renders every attachment of the task and its comments.
func (h *TaskHandler) TaskFiles(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		NotFound(c)
		return
	}
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)

	files := h.taskService.TaskFiles(ctx, task)
	names := h.userService.NameLookup(ctx, actor)

	render(c, http.StatusOK, "task-files.html", gin.H{
		"Title": "Files",
		"Task":  dto.ToTaskView(*task, names, "", actor.UserID),
		"Files": dto.ToFileViews(files, names),
	})
}

// EditTask renders the edit form. Only the creator may edit.
func (h *TaskHandler) EditTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		NotFound(c)
		return
	}
	actor := middleware.CurrentActor(c)
	if !task.IsCreator(actor.UserID) {
		renderError(c, http.StatusForbidden, "Forbidden", "Only the task creator can edit this task.")
		return
	}

	names := h.userService.NameLookup(c.Request.Context(), actor)
	render(c, http.StatusOK, "edit-task.html", gin.H{
		"Title": "Edit Task",
		"Task":  dto.ToTaskView(*task, names, "", actor.UserID),
	})
}

// UpdateTask saves the edit form and redirects to the task page.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)
	taskID := c.Param("taskId")

	input := services.UpdateTaskInput{
		Name:        c.PostForm("taskName"),
		Description: c.PostForm("taskDescription"),
		AssignedTo:  utils.GetAssignedUsers(c, "assignedUsers"),
	}

	_, _, err := h.taskService.UpdateTask(ctx, actor, taskID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			renderError(c, http.StatusNotFound, "Not Found", "Task not found")
		case errors.Is(err, services.ErrNotTaskCreator):
			renderError(c, http.StatusForbidden, "Forbidden", "Only the task creator can edit this task.")
		case errors.Is(err, services.ErrTaskNameRequired):
			task, ok := middleware.GetTask(c)
			if !ok {
				renderError(c, http.StatusBadRequest, "Bad Request", "Task name is required")
				return
			}
			names := h.userService.NameLookup(ctx, actor)
			view := dto.ToTaskView(*task, names, "", actor.UserID)
			view.Description = input.Description
			render(c, http.StatusBadRequest, "edit-task.html", gin.H{
				"Title": "Edit Task",
				"Task":  view,
				"Error": "Task name is required",
			})
		default:
			slog.Error("failed to update task", "task_id", taskID, "error", err)
			renderError(c, http.StatusInternalServerError, "Server Error", "Failed to update task. Please try again.")
		}
		return
	}

	c.Redirect(http.StatusFound, "/task/"+taskID)
}

// DeleteTask runs the delete cascade and returns its report as JSON.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	taskID := c.Param("taskId")

	report, err := h.taskService.DeleteTask(c.Request.Context(), actor, taskID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			apierrors.NotFound(c, "Task not found")
		case errors.Is(err, services.ErrTaskAccessDenied):
			apierrors.Forbidden(c, "You do not have access to this task")
		default:
			slog.Error("failed to delete task", "task_id", taskID, "error", err)
			apierrors.InternalError(c, "Failed to delete task")
		}
		return
	}

	if !report.Deleted() {
		apierrors.InternalErrorWithDetails(c, "Failed to delete task", report)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
		"report":  report,
	})
}

func (h *TaskHandler) pickerUsers(c *gin.Context) []dto.UserDTO {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		slog.Warn("failed to list users for picker", "error", err)
		return nil
	}
	return dto.ToUserDTOs(users)
}
