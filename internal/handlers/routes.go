package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/web"
)

// Router holds every handler group and the settings the routes depend on.
type Router struct {
	Pages    *PageHandler
	Auth     *AuthHandler
	Tasks    *TaskHandler
	Comments *CommentHandler
	Files    *FileHandler
	Users    *UserHandler

	// TaskAccess resolves :taskId for the task-scoped routes.
	TaskAccess middleware.TaskAuthorizer
	// PresignBypass lets the presign endpoints answer without a session.
	PresignBypass bool
}

// Register mounts all routes on r.
func (rt *Router) Register(r *gin.Engine) {
	r.StaticFS("/static", web.Static())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Management System is running",
		})
	})

	// Pages
	r.GET("/", middleware.LoadUser(), rt.Pages.Home)
	r.GET("/login", middleware.RequireGuest(), rt.Pages.Login)
	r.GET("/register", middleware.RequireGuest(), rt.Pages.Register)
	r.GET("/dashboard", middleware.RequireAuth(), rt.Pages.Dashboard)
	r.GET("/logout", rt.Pages.Logout)

	// Auth forms
	auth := r.Group("/auth")
	{
		auth.POST("/register", rt.Auth.Register)
		auth.POST("/login", rt.Auth.Login)
	}

	pageAccess := middleware.RequireTaskAccess(rt.TaskAccess, false)
	jsonAccess := middleware.RequireTaskAccess(rt.TaskAccess, true)

	// Task pages (session required)
	pages := r.Group("/")
	pages.Use(middleware.RequireAuth())
	{
		pages.GET("/create-task", rt.Tasks.NewTask)
		pages.POST("/create-task", rt.Tasks.CreateTask)
		pages.GET("/view-tasks", rt.Tasks.ListTasks)
		pages.GET("/task/:taskId", pageAccess, rt.Tasks.GetTask)
		pages.GET("/task/:taskId/files", pageAccess, rt.Tasks.TaskFiles)
		pages.GET("/edit-task/:taskId", pageAccess, rt.Tasks.EditTask)
		pages.POST("/update-task/:taskId", pageAccess, rt.Tasks.UpdateTask)
		pages.POST("/add-comment", pageAccess, rt.Comments.AddComment)
	}

	// JSON endpoints (session required)
	api := r.Group("/")
	api.Use(middleware.RequireAuthJSON())
	{
		api.DELETE("/delete-task/:taskId", rt.Tasks.DeleteTask)
		api.GET("/search-users", rt.Users.SearchUsers)
		api.GET("/download/*fileKey", rt.Files.Download)
		api.GET("/download-file/:taskId", jsonAccess, rt.Files.DownloadFile)
	}

	// Presign endpoints (session required unless bypassed in development)
	presign := r.Group("/")
	presign.Use(middleware.AllowPresign(rt.PresignBypass))
	{
		presign.GET("/presign-upload", rt.Files.PresignUpload)
		presign.GET("/presign-download", rt.Files.PresignDownload)
	}

	r.NoRoute(middleware.LoadUser(), NotFound)
}
