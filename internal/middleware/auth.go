package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
)

// LoadUser puts the session identity in the context when there is one. It never aborts.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, ok := LoadSessionUser(c); ok {
			setUser(c, u)
		}
		c.Next()
	}
}

// RequireAuth redirects to the login page when there is no live session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := LoadSessionUser(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		setUser(c, u)
		c.Next()
	}
}

// RequireAuthJSON answers 401 instead of redirecting, for XHR endpoints
func RequireAuthJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := LoadSessionUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		setUser(c, u)
		c.Next()
	}
}

// RequireGuest sends logged-in users to the dashboard
func RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := LoadSessionUser(c); ok {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AllowPresign requires a session unless bypass is set, which is only allowed in development.
func AllowPresign(bypass bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, ok := LoadSessionUser(c); ok {
			setUser(c, u)
			c.Next()
			return
		}
		if bypass {
			c.Next()
			return
		}
		apierrors.Unauthorized(c, "")
		c.Abort()
	}
}
