package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/remote"
	"github.com/yukikurage/taskflow/internal/services"
)

const registeredRedirect = "/login?success=Registration successful! Please login."

// AuthHandler handles the register and login forms.
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{
		auth: auth,
	}
}

// Register creates an account and sends the user to the login page.
func (h *AuthHandler) Register(c *gin.Context) {
	form := formData{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
	}

	_, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	})
	if err != nil {
		render(c, http.StatusBadRequest, "register.html", gin.H{
			"Title":    "Register",
			"Error":    registerMessage(err),
			"FormData": form,
		})
		return
	}

	c.Redirect(http.StatusFound, registeredRedirect)
}

// Login authenticates the user and starts the session.
func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")

	result, err := h.auth.Login(c.Request.Context(), services.LoginInput{
		Email:    email,
		Password: c.PostForm("password"),
	})
	if err != nil {
		status, message := loginFailure(err)
		render(c, status, "login.html", gin.H{
			"Title":    "Login",
			"Error":    message,
			"FormData": formData{Email: email},
		})
		return
	}

	role := result.User.Role
	if role == "" {
		role = constants.DefaultRole
	}
	err = middleware.SaveSessionUser(c, middleware.SessionUser{
		UserID:   result.User.ID,
		Username: result.User.Username,
		Email:    result.User.Email,
		Role:     role,
		Token:    result.Token,
	})
	if err != nil {
		slog.Error("failed to save session", "user_id", result.User.ID, "error", err)
		render(c, http.StatusInternalServerError, "login.html", gin.H{
			"Title":    "Login",
			"Error":    "Internal server error",
			"FormData": formData{Email: email},
		})
		return
	}

	slog.Info("user logged in", "user_id", result.User.ID)
	c.Redirect(http.StatusFound, "/dashboard")
}

func registerMessage(err error) string {
	var re *remote.Error
	switch {
	case errors.Is(err, services.ErrMissingFields):
		return "All fields are required"
	case errors.Is(err, services.ErrPasswordTooShort):
		return "Password must be at least 6 characters long"
	case errors.Is(err, services.ErrEmailTaken):
		return "User with this email already exists"
	case errors.Is(err, services.ErrUsernameTaken):
		return "Username already taken"
	case remote.KindOf(err) == remote.KindConnectionRefused:
		slog.Warn("registration service unreachable", "error", err)
		return "Cannot connect to authentication service. Please try again later."
	case errors.As(err, &re) && re.Message != "":
		return re.Message
	default:
		slog.Error("registration failed", "error", err)
		return "Registration failed. Please try again."
	}
}

func loginFailure(err error) (int, string) {
	var re *remote.Error
	switch {
	case errors.Is(err, services.ErrMissingFields):
		return http.StatusBadRequest, "Email and password are required"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case remote.KindOf(err) == remote.KindConnectionRefused:
		slog.Warn("login service unreachable", "error", err)
		return http.StatusServiceUnavailable, "Cannot connect to authentication service. Please try again later."
	case errors.As(err, &re):
		slog.Warn("login via remote API failed", "kind", re.Kind, "status", re.Status, "error", err)
		if re.Status >= http.StatusInternalServerError {
			return http.StatusBadGateway, "Server error. Please try again later."
		}
		return http.StatusServiceUnavailable, "Login service unavailable. Please try again later."
	default:
		slog.Error("login failed", "error", err)
		return http.StatusInternalServerError, "Internal server error"
	}
}
