package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// placeholderUsers is returned by user search when neither the remote API nor the local
// store can answer.
var placeholderUsers = []models.User{
	{ID: "u123", Username: "AliceSmith", Email: "alice@example.com"},
	{ID: "u456", Username: "BobJohnson", Email: "bob@example.com"},
}

// UserService serves user listings and id-to-name resolution.
type UserService struct {
	userRepo repository.UserRepository
	remote   RemoteUsers
}

// NewUserService creates a UserService. remote may be nil.
func NewUserService(userRepo repository.UserRepository, remote RemoteUsers) *UserService {
	return &UserService{userRepo: userRepo, remote: remote}
}

// ListUsers returns every local user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Search asks the remote API first, then the local store, then falls back to a fixed list.
func (s *UserService) Search(ctx context.Context, actor Actor, query string) ([]models.User, Source) {
	query = strings.TrimSpace(query)

	if s.remote != nil {
		users, err := s.remote.SearchUsers(ctx, actor.Token, query)
		if err == nil {
			return users, SourceRemote
		}
		slog.Warn("remote user search failed, using local store", "error", err)
	}

	if s.userRepo != nil {
		users, err := s.userRepo.Search(ctx, query)
		if err == nil {
			return users, SourceLocal
		}
		slog.Warn("local user search failed, using placeholder users", "error", err)
	}

	return filterUsers(placeholderUsers, query), SourceFallback
}

// NameLookup fetches the user list once and maps ids to usernames. Failures yield an
// empty map so callers show raw ids.
func (s *UserService) NameLookup(ctx context.Context, actor Actor) map[string]string {
	var (
		users []models.User
		err   error
	)

	if s.remote != nil {
		users, err = s.remote.ListUsers(ctx, actor.Token)
		if err != nil {
			slog.Warn("remote user list failed, using local store", "error", err)
			users = nil
		}
	}
	if users == nil && s.userRepo != nil {
		users, err = s.userRepo.List(ctx)
		if err != nil {
			slog.Warn("failed to list users for name lookup", "error", err)
		}
	}

	names := make(map[string]string, len(users)+1)
	for _, u := range users {
		if u.ID != "" && u.Username != "" {
			names[u.ID] = u.Username
		}
	}
	if actor.UserID != "" && actor.Username != "" {
		names[actor.UserID] = actor.Username
	}
	return names
}

// DisplayName resolves id through names, falling back to the raw id.
func DisplayName(names map[string]string, id string) string {
	if name, ok := names[strings.TrimSpace(id)]; ok {
		return name
	}
	return id
}

func filterUsers(users []models.User, query string) []models.User {
	q := strings.ToLower(query)
	out := []models.User{}
	for _, u := range users {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}
