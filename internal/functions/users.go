package functions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
)

type userBody struct {
	UserID   string `json:"UserID"`
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Role     string `json:"Role"`
}

func toUserBody(u *models.User) userBody {
	return userBody{UserID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func (f *Functions) Register(ctx context.Context, req Request) Response {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := req.decode(&body); err != nil {
		return failure(http.StatusBadRequest, "Invalid request body")
	}

	user, err := f.auth.Register(ctx, services.RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			return failure(http.StatusBadRequest, "Please provide username, email, and password")
		case errors.Is(err, services.ErrPasswordTooShort):
			return failure(http.StatusBadRequest, "Password must be at least 6 characters long")
		case errors.Is(err, services.ErrEmailTaken):
			return failure(http.StatusBadRequest, "User with this email already exists")
		case errors.Is(err, services.ErrUsernameTaken):
			return failure(http.StatusBadRequest, "Username already taken")
		default:
			slog.Error("register failed", "error", err)
			return failure(http.StatusInternalServerError, "Internal server error")
		}
	}

	return jsonResponse(http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"user":    toUserBody(user),
	})
}

func (f *Functions) Login(ctx context.Context, req Request) Response {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := req.decode(&body); err != nil {
		return failure(http.StatusBadRequest, "Invalid request body")
	}

	result, err := f.auth.Login(ctx, services.LoginInput{Email: body.Email, Password: body.Password})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			return failure(http.StatusBadRequest, "Please provide email and password")
		case errors.Is(err, services.ErrInvalidCredentials):
			return failure(http.StatusUnauthorized, "Invalid email or password")
		default:
			slog.Error("login failed", "error", err)
			return failure(http.StatusInternalServerError, "Internal server error")
		}
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   result.Token,
		"user":    toUserBody(result.User),
	})
}

// ListUsers returns every user without password hashes.
func (f *Functions) ListUsers(ctx context.Context, _ Request) Response {
	users, err := f.users.ListUsers(ctx)
	if err != nil {
		slog.Error("list users failed", "error", err)
		return failure(http.StatusInternalServerError, "Internal server error")
	}
	return jsonResponse(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}

func (f *Functions) SearchUsers(ctx context.Context, req Request) Response {
	users, _ := f.users.Search(ctx, services.Actor{}, req.Query["q"])
	return jsonResponse(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}

// GetProfile returns the user identified by the bearer token.
func (f *Functions) GetProfile(ctx context.Context, req Request) Response {
	actor, ok := f.authenticate(req)
	if !ok {
		return failure(http.StatusUnauthorized, "Authentication required")
	}
	user, err := f.users.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return failure(http.StatusNotFound, "User not found")
		}
		slog.Error("get profile failed", "user_id", actor.UserID, "error", err)
		return failure(http.StatusInternalServerError, "Internal server error")
	}
	return jsonResponse(http.StatusOK, map[string]any{"success": true, "user": user})
}
