package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// AddComment stores a comment with its uploaded attachments and returns to the task page.
// Requires RequireTaskAccess, which reads taskId from the form.
func (h *CommentHandler) AddComment(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		NotFound(c)
		return
	}
	actor := middleware.CurrentActor(c)

	files, closeFiles, err := uploadedFiles(c, "attachments")
	if err != nil {
		slog.Warn("failed to read comment attachments", "task_id", task.ID, "error", err)
		renderError(c, http.StatusBadRequest, "Bad Request", "Could not read the uploaded files.")
		return
	}
	defer closeFiles()

	result, err := h.commentService.AddComment(c.Request.Context(), services.AddCommentInput{
		TaskID: task.ID,
		UserID: actor.UserID,
		Text:   c.PostForm("commentText"),
		Files:  files,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyComment):
			renderError(c, http.StatusBadRequest, "Bad Request", "A comment needs text or an attachment.")
		default:
			slog.Error("failed to add comment", "task_id", task.ID, "error", err)
			renderError(c, http.StatusInternalServerError, "Server Error", "Failed to add comment. Please try again.")
		}
		return
	}

	for _, step := range result.Uploads {
		if !step.OK {
			slog.Warn("comment stored without attachment", "task_id", task.ID, "step", step.Step, "error", step.Error)
		}
	}
	c.Redirect(http.StatusFound, "/task/"+task.ID)
}

// uploadedFiles opens every file posted under field or field[]. The returned func
// closes them.
func uploadedFiles(c *gin.Context, field string) ([]services.UploadFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}

	var headers []*multipart.FileHeader
	headers = append(headers, form.File[field]...)
	headers = append(headers, form.File[field+"[]"]...)

	var (
		files  []services.UploadFile
		opened []multipart.File
	)
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		files = append(files, services.UploadFile{
			Name:        fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}
	return files, closeAll, nil
}
