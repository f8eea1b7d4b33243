// Package app wires configuration, stores and services for the executables.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/taskflow/internal/auth"
	"github.com/yukikurage/taskflow/internal/config"
	"github.com/yukikurage/taskflow/internal/database"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/remote"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/storage"
	"gorm.io/gorm"
)

// App holds the shared dependencies of the web server and the function hosts.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Tokens *auth.TokenIssuer
	// Remote is nil when no remote task API is configured.
	Remote *remote.Client

	UserRepo    repository.UserRepository
	TaskRepo    repository.TaskRepository
	CommentRepo repository.CommentRepository

	Auth        *services.AuthService
	Users       *services.UserService
	Tasks       *services.TaskService
	Comments    *services.CommentService
	Attachments *services.AttachmentService
}

// Options adjusts what Build wires.
type Options struct {
	// UseRemote forwards task and user calls to the remote task API when configured.
	// The function hosts are that API and leave it off.
	UseRemote bool
}

// Build connects the database, runs migrations and constructs every service.
func Build(cfg *config.Config, opts Options) (*App, error) {
	models.SetTableNames(models.TableNames{
		Users:           cfg.UsersTable,
		Tasks:           cfg.TasksTable,
		TaskAssignments: cfg.TaskAssignmentsTable,
		Comments:        cfg.CommentsTable,
	})

	if err := database.Connect(cfg); err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return New(cfg, database.GetDB(), opts)
}

// New constructs every service on top of an open database.
func New(cfg *config.Config, db *gorm.DB, opts Options) (*App, error) {
	a := &App{
		Config:      cfg,
		DB:          db,
		Tokens:      auth.NewTokenIssuer(cfg.JWTSecret),
		UserRepo:    repository.NewUserRepository(db),
		CommentRepo: repository.NewCommentRepository(db),
	}

	switch cfg.TaskStore {
	case "memory":
		slog.Warn("using in-memory task store, tasks are lost on restart")
		a.TaskRepo = repository.NewMemoryTaskRepository()
	case "db", "":
		a.TaskRepo = repository.NewTaskRepository(db)
	default:
		return nil, fmt.Errorf("unsupported TASK_STORE %q", cfg.TaskStore)
	}

	var store storage.ObjectStore
	s3Store, err := storage.New(cfg)
	switch {
	case err == nil:
		store = s3Store
	case errors.Is(err, storage.ErrNotConfigured):
		slog.Warn("S3 bucket not configured, attachments are disabled")
	default:
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Attachments = services.NewAttachmentService(store)

	var (
		remoteTasks services.RemoteTasks
		remoteUsers services.RemoteUsers
	)
	if opts.UseRemote {
		a.Remote = remote.New(cfg.RemoteAPIURL, cfg.RemoteTimeout)
	}
	if a.Remote != nil {
		slog.Info("remote task API configured", "url", cfg.RemoteAPIURL)
		remoteTasks = a.Remote
		remoteUsers = a.Remote
	}

	a.Auth = services.NewAuthService(a.UserRepo, a.Tokens)
	a.Users = services.NewUserService(a.UserRepo, remoteUsers)
	a.Tasks = services.NewTaskService(a.TaskRepo, a.CommentRepo, a.Attachments, remoteTasks)
	a.Comments = services.NewCommentService(a.CommentRepo, a.Attachments)

	return a, nil
}
