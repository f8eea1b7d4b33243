package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
)

// Authenticator registers and logs in users. It is served by the local
// AuthService or by the remote task API client.
type Authenticator interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error)
}

// formData holds submitted values echoed back into a re-rendered form.
type formData struct {
	Username      string
	Email         string
	Name          string
	Description   string
	AssignedUsers string
}

// render executes a page template with the session user filled in.
func render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["User"]; !ok {
		if u, ok := middleware.CurrentUser(c); ok {
			data["User"] = u
		} else if u, ok := middleware.LoadSessionUser(c); ok {
			data["User"] = u
		} else {
			data["User"] = nil
		}
	}
	if _, ok := data["FormData"]; !ok {
		data["FormData"] = formData{}
	}
	c.HTML(status, page, data)
}

// renderError renders the error page.
func renderError(c *gin.Context, status int, title, message string) {
	render(c, status, "error.html", gin.H{
		"Title":   title,
		"Status":  status,
		"Message": message,
	})
}

// NotFound renders the 404 page for unknown routes.
func NotFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, "Page Not Found", "The page you are looking for does not exist.")
}

// Recovery renders the 500 page when a handler panics.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		renderError(c, http.StatusInternalServerError, "Server Error", "Something went wrong! Please try again later.")
		c.Abort()
	})
}
