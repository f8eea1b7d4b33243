package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/constants"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
)

// TaskAuthorizer resolves a task and checks the caller may see it.
type TaskAuthorizer interface {
	AuthorizeTask(ctx context.Context, actor services.Actor, id string) (*models.Task, error)
}

// RequireTaskAccess loads the :taskId task and checks the user created it or is
// assigned to it. Page routes get the error page, JSON routes an APIError.
func RequireTaskAccess(tasks TaskAuthorizer, asJSON bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("taskId")
		if taskID == "" {
			taskID = c.PostForm("taskId")
		}

		task, err := tasks.AuthorizeTask(c.Request.Context(), CurrentActor(c), taskID)
		if err != nil {
			status, message := http.StatusInternalServerError, "Failed to load task"
			switch {
			case errors.Is(err, services.ErrTaskNotFound):
				status, message = http.StatusNotFound, "Task not found"
			case errors.Is(err, services.ErrTaskAccessDenied):
				status, message = http.StatusForbidden, "You do not have access to this task"
			default:
				slog.Error("failed to authorize task", "task_id", taskID, "error", err)
			}

			if asJSON {
				apierrors.RespondWithError(c, status, apierrors.NewAPIError(apierrors.CodeForStatus(status), message))
			} else {
				c.HTML(status, "error.html", gin.H{
					"Title":   http.StatusText(status),
					"Status":  status,
					"Message": message,
				})
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (*models.Task, bool) {
	v, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := v.(*models.Task)
	return task, ok
}
