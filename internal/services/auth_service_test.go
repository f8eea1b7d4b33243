package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/auth"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
)

func newAuthService(t *testing.T) (*AuthService, repository.UserRepository) {
	t.Helper()
	repo := repository.NewUserRepository(newTestDB(t))
	return NewAuthService(repo, auth.NewTokenIssuer("test-secret")), repo
}

func TestRegister(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "User", user.Role)
	assert.Nil(t, user.LastLogin)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.True(t, auth.VerifyPassword("secret1", user.PasswordHash))

	stored, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "b@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

// blindUserRepository misses the first email and username lookups, as if a concurrent
// registration committed between the check and the insert.
type blindUserRepository struct {
	repository.UserRepository
	emailChecks int
}

func (r *blindUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.emailChecks++
	if r.emailChecks == 1 {
		return nil, repository.ErrNotFound
	}
	return r.UserRepository.FindByEmail(ctx, email)
}

func (r *blindUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func TestRegisterRaceTranslatesDuplicate(t *testing.T) {
	repo := repository.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u-race", Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: "User"}))

	svc := NewAuthService(&blindUserRepository{UserRepository: repo}, stubIssuer{})
	_, err := svc.Register(ctx, RegisterInput{Username: "bob2", Email: "bob@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	svc = NewAuthService(&blindUserRepository{UserRepository: repo, emailChecks: 1}, stubIssuer{})
	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"missing username", RegisterInput{Email: "a@example.com", Password: "secret1"}, ErrMissingFields},
		{"missing email", RegisterInput{Username: "a", Password: "secret1"}, ErrMissingFields},
		{"missing password", RegisterInput{Username: "a", Email: "a@example.com"}, ErrMissingFields},
		{"short password", RegisterInput{Username: "a", Email: "a@example.com", Password: "12345"}, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	t.Run("wrong password keeps last login", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		stored, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastLogin)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("correct password", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)

		result, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)

		claims, err := auth.NewTokenIssuer("test-secret").Verify(result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)

		stored, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastLogin)
		assert.False(t, stored.LastLogin.Before(before))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "alice@example.com"})
		assert.ErrorIs(t, err, ErrMissingFields)
	})
}
