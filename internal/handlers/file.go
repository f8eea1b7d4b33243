package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/constants"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/utils"
)

// FileHandler signs upload and download URLs for attachments.
type FileHandler struct {
	taskService *services.TaskService
	attachments *services.AttachmentService
}

func NewFileHandler(taskService *services.TaskService, attachments *services.AttachmentService) *FileHandler {
	return &FileHandler{
		taskService: taskService,
		attachments: attachments,
	}
}

// PresignUpload returns a short-lived PUT URL and the key the browser uploads to.
func (h *FileHandler) PresignUpload(c *gin.Context) {
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		apierrors.BadRequest(c, "filename required")
		return
	}
	contentType := c.DefaultQuery("contentType", "application/octet-stream")
	if !h.attachments.Configured() {
		apierrors.InternalError(c, "S3 bucket not configured")
		return
	}

	url, key, err := h.attachments.PresignUpload(c.Request.Context(), filename, contentType)
	if err != nil {
		slog.Error("failed to presign upload", "filename", filename, "error", err)
		apierrors.InternalError(c, "Could not create presigned URL")
		return
	}

	slog.Debug("presigned upload", "key", key, "user_id", middleware.CurrentActor(c).UserID)
	c.JSON(http.StatusOK, gin.H{"url": url, "key": key})
}

// PresignDownload returns a short-lived GET URL. With a session, the key must belong to
// a task the user can see.
func (h *FileHandler) PresignDownload(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		apierrors.BadRequest(c, "key required")
		return
	}
	if !h.attachments.Configured() {
		apierrors.InternalError(c, "S3 bucket not configured")
		return
	}

	if _, ok := middleware.CurrentUser(c); ok {
		if _, err := h.taskService.AuthorizeKey(c.Request.Context(), middleware.CurrentActor(c), key); err != nil {
			respondFileError(c, err)
			return
		}
	}

	url, err := h.attachments.SignedURL(c.Request.Context(), key, constants.PresignURLTTL)
	if err != nil {
		slog.Error("failed to presign download", "key", key, "error", err)
		apierrors.InternalError(c, "Could not create presigned download URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Download redirects to an hour-long signed URL for any attachment the user can see.
func (h *FileHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	key := strings.TrimPrefix(c.Param("fileKey"), "/")

	task, err := h.taskService.AuthorizeKey(ctx, middleware.CurrentActor(c), key)
	if err != nil {
		respondFileError(c, err)
		return
	}

	url, err := h.attachments.SignedURL(ctx, key, constants.DownloadURLTTL)
	if err != nil {
		if task.AttachmentKey() == key && task.FileURL != nil && *task.FileURL != "" {
			slog.Warn("failed to sign download, using stored url", "task_id", task.ID, "key", key, "error", err)
			c.Redirect(http.StatusFound, *task.FileURL)
			return
		}
		slog.Error("failed to sign download", "task_id", task.ID, "key", key, "error", err)
		apierrors.InternalError(c, "Could not create download URL")
		return
	}
	c.Redirect(http.StatusFound, url)
}

// DownloadFile redirects to one attachment of a task: the task's own file, or the
// fileIndex-th file of commentId. Requires RequireTaskAccess.
func (h *FileHandler) DownloadFile(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	url, err := h.taskService.DownloadURL(c.Request.Context(), task, c.Query("commentId"), utils.GetIntQuery(c, "fileIndex", 0))
	if err != nil {
		respondFileError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func respondFileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrFileNotFound):
		apierrors.NotFound(c, "File not found")
	case errors.Is(err, services.ErrCommentNotFound):
		apierrors.NotFound(c, "Comment not found")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTaskAccessDenied):
		apierrors.Forbidden(c, "You do not have access to this file")
	case errors.Is(err, services.ErrStorageNotConfigured):
		apierrors.ServiceUnavailable(c, "File storage is not configured")
	default:
		slog.Error("file request failed", "error", err)
		apierrors.InternalError(c, "Could not create download URL")
	}
}
