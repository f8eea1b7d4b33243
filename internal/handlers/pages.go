package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/services"
)

const dashboardRecentTasks = 5

// PageHandler serves the static-ish pages around the session lifecycle.
type PageHandler struct {
	taskService *services.TaskService
	userService *services.UserService
}

func NewPageHandler(taskService *services.TaskService, userService *services.UserService) *PageHandler {
	return &PageHandler{
		taskService: taskService,
		userService: userService,
	}
}

func (h *PageHandler) Home(c *gin.Context) {
	render(c, http.StatusOK, "home.html", gin.H{"Title": "Task Management System"})
}

func (h *PageHandler) Login(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{
		"Title":   "Login",
		"Success": c.Query("success"),
	})
}

func (h *PageHandler) Register(c *gin.Context) {
	render(c, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

// Dashboard greets the user and shows their most recent visible tasks.
func (h *PageHandler) Dashboard(c *gin.Context) {
	actor := middleware.CurrentActor(c)

	tasks, source, err := h.taskService.VisibleTasks(c.Request.Context(), actor)
	if err != nil {
		slog.Warn("failed to load dashboard tasks", "user_id", actor.UserID, "error", err)
	}
	count := len(tasks)
	if len(tasks) > dashboardRecentTasks {
		tasks = tasks[:dashboardRecentTasks]
	}

	var views []dto.TaskView
	if len(tasks) > 0 {
		names := h.userService.NameLookup(c.Request.Context(), actor)
		views = dto.ToTaskViews(tasks, names, nil, actor.UserID)
	}

	render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":     "Dashboard",
		"Tasks":     views,
		"TaskCount": count,
		"Source":    source,
	})
}

func (h *PageHandler) Logout(c *gin.Context) {
	if err := middleware.ClearSession(c); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}
	c.Redirect(http.StatusFound, "/")
}
