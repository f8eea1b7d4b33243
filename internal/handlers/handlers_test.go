package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/auth"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/database"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/storage"
	"github.com/yukikurage/taskflow/internal/web"
	"gorm.io/gorm"
)

type handlerTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	userRepo    repository.UserRepository
	taskRepo    repository.TaskRepository
	commentRepo repository.CommentRepository
}

func setupHandlerTestEnv(t *testing.T, store storage.ObjectStore) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := services.NewAuthService(userRepo, auth.NewTokenIssuer("test-secret"))
	attachments := services.NewAttachmentService(store)
	taskService := services.NewTaskService(taskRepo, commentRepo, attachments, nil)
	commentService := services.NewCommentService(commentRepo, attachments)
	userService := services.NewUserService(userRepo, nil)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-session-secret"))))
	tmpl, err := web.Templates()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)

	rt := &Router{
		Pages:      NewPageHandler(taskService, userService),
		Auth:       NewAuthHandler(authService),
		Tasks:      NewTaskHandler(taskService, commentService, userService),
		Comments:   NewCommentHandler(commentService),
		Files:      NewFileHandler(taskService, attachments),
		Users:      NewUserHandler(userService),
		TaskAccess: taskService,
	}
	rt.Register(r)

	return &handlerTestEnv{
		db:          db,
		router:      r,
		authService: authService,
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		commentRepo: commentRepo,
	}
}

func (env *handlerTestEnv) do(method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// login registers the user and returns the session cookies of a successful login.
func (env *handlerTestEnv) login(t *testing.T, username, email string) (*models.User, []*http.Cookie) {
	t.Helper()

	user, err := env.authService.Register(context.Background(), services.RegisterInput{
		Username: username,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/auth/login", url.Values{
		"email":    {email},
		"password": {"password123"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return user, cookies
}

func (env *handlerTestEnv) createTask(t *testing.T, name, createdBy string, assignedTo []string, age time.Duration) *models.Task {
	t.Helper()

	task := &models.Task{
		ID:         uuid.NewString(),
		Name:       name,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
		CreatedAt:  time.Now().UTC().Add(-age),
	}
	_, err := env.taskRepo.Create(context.Background(), task)
	require.NoError(t, err)
	return task
}

func TestHealth(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRegister(t *testing.T) {
	t.Run("success redirects to login", func(t *testing.T) {
		env := setupHandlerTestEnv(t, nil)

		rec := env.do(http.MethodPost, "/auth/register", url.Values{
			"username": {"alice"},
			"email":    {"alice@example.com"},
			"password": {"secret1"},
		}, nil)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, registeredRedirect, rec.Header().Get("Location"))

		user, err := env.userRepo.FindByEmail(context.Background(), "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("duplicate email re-renders the form", func(t *testing.T) {
		env := setupHandlerTestEnv(t, nil)
		form := url.Values{
			"username": {"alice"},
			"email":    {"alice@example.com"},
			"password": {"secret1"},
		}
		require.Equal(t, http.StatusFound, env.do(http.MethodPost, "/auth/register", form, nil).Code)

		form.Set("username", "alice2")
		rec := env.do(http.MethodPost, "/auth/register", form, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "User with this email already exists")
		assert.Contains(t, rec.Body.String(), `value="alice2"`)

		users, err := env.userRepo.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("validation messages", func(t *testing.T) {
		env := setupHandlerTestEnv(t, nil)

		rec := env.do(http.MethodPost, "/auth/register", url.Values{
			"username": {"bob"},
			"email":    {"bob@example.com"},
			"password": {"123"},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Password must be at least 6 characters long")

		rec = env.do(http.MethodPost, "/auth/register", url.Values{"username": {"bob"}}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "All fields are required")
	})
}

func TestLogin(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		env := setupHandlerTestEnv(t, nil)
		_, err := env.authService.Register(context.Background(), services.RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "password123",
		})
		require.NoError(t, err)

		rec := env.do(http.MethodPost, "/auth/login", url.Values{
			"email":    {"alice@example.com"},
			"password": {"wrong-password"},
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("session reaches the dashboard", func(t *testing.T) {
		env := setupHandlerTestEnv(t, nil)
		_, cookies := env.login(t, "alice", "alice@example.com")

		rec := env.do(http.MethodGet, "/dashboard", nil, cookies)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Welcome, alice")
	})
}

func TestSessionGating(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)

	for _, path := range []string{"/dashboard", "/view-tasks", "/create-task", "/task/some-id"} {
		rec := env.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	rec := env.do(http.MethodGet, "/search-users?q=a", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, cookies := env.login(t, "alice", "alice@example.com")
	for _, path := range []string{"/login", "/register"} {
		rec := env.do(http.MethodGet, path, nil, cookies)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"), path)
	}
}

func TestLogout(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	_, cookies := env.login(t, "alice", "alice@example.com")

	rec := env.do(http.MethodGet, "/logout", nil, cookies)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestViewTasksShowsOnlyVisibleTasks(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	u2, cookies := env.login(t, "bob", "bob@example.com")

	env.createTask(t, "Task One", "u1", nil, 3*time.Hour)
	env.createTask(t, "Task Two", "u1", []string{u2.ID}, 2*time.Hour)
	env.createTask(t, "Task Three", "u3", []string{}, time.Hour)
	env.createTask(t, "Task Four", u2.ID, nil, 0)

	rec := env.do(http.MethodGet, "/view-tasks", nil, cookies)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "Task One")
	assert.NotContains(t, body, "Task Three")
	assert.Contains(t, body, "Task Two")
	assert.Contains(t, body, "Task Four")
	assert.Less(t, strings.Index(body, "Task Four"), strings.Index(body, "Task Two"))
	// creator ids resolve to usernames where known
	assert.Contains(t, body, "Created by bob")
}

func TestCreateTask(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	user, cookies := env.login(t, "alice", "alice@example.com")

	rec := env.do(http.MethodPost, "/create-task", url.Values{
		"taskName":        {"Write report"},
		"taskDescription": {"Quarterly numbers"},
		"assignedUsers":   {"u2, u3,,u2"},
	}, cookies)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/view-tasks", rec.Header().Get("Location"))

	tasks, err := env.taskRepo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Name)
	assert.Equal(t, user.ID, tasks[0].CreatedBy)
	assert.Equal(t, []string{"u2", "u3"}, tasks[0].AssignedTo)

	var assignments int64
	require.NoError(t, env.db.Model(&models.TaskAssignment{}).Count(&assignments).Error)
	assert.Equal(t, int64(2), assignments)
}

func TestTaskDetail(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	user, cookies := env.login(t, "alice", "alice@example.com")

	mine := env.createTask(t, "My task", user.ID, nil, 0)
	other := env.createTask(t, "Other task", "u9", nil, 0)
	require.NoError(t, env.commentRepo.Create(context.Background(), &models.Comment{
		TaskID: mine.ID,
		UserID: user.ID,
		Text:   "first comment",
	}))

	rec := env.do(http.MethodGet, "/task/"+mine.ID, nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "My task")
	assert.Contains(t, rec.Body.String(), "first comment")

	rec = env.do(http.MethodGet, "/task/"+other.ID, nil, cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/task/missing", nil, cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTask(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	user, cookies := env.login(t, "alice", "alice@example.com")
	task := env.createTask(t, "Old name", user.ID, nil, 0)

	rec := env.do(http.MethodPost, "/update-task/"+task.ID, url.Values{"taskName": {""}}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Task name is required")

	rec = env.do(http.MethodPost, "/update-task/"+task.ID, url.Values{
		"taskName":      {"New name"},
		"assignedUsers": {"u2"},
	}, cookies)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/task/"+task.ID, rec.Header().Get("Location"))

	updated, err := env.taskRepo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.Equal(t, []string{"u2"}, updated.AssignedTo)
}

func TestDeleteTask(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	user, cookies := env.login(t, "alice", "alice@example.com")
	task := env.createTask(t, "Doomed", user.ID, nil, 0)
	require.NoError(t, env.commentRepo.Create(context.Background(), &models.Comment{
		TaskID: task.ID,
		UserID: user.ID,
		Text:   "bye",
	}))

	rec := env.do(http.MethodDelete, "/delete-task/missing", nil, cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodDelete, "/delete-task/"+task.ID, nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                  `json:"success"`
		Report  services.DeleteReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, task.ID, body.Report.TaskID)
	assert.True(t, body.Report.Deleted())

	_, err := env.taskRepo.FindByID(context.Background(), task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	comments, err := env.commentRepo.ListByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestSearchUsers(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	_, cookies := env.login(t, "alice", "alice@example.com")
	_, err := env.authService.Register(context.Background(), services.RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/search-users?q=", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(http.MethodGet, "/search-users?q=BOB", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0]["Username"])
	assert.NotContains(t, rec.Body.String(), "PasswordHash")
}

func TestPresignUpload(t *testing.T) {
	store := &mockObjectStore{}
	env := setupHandlerTestEnv(t, store)
	_, cookies := env.login(t, "alice", "alice@example.com")

	rec := env.do(http.MethodGet, "/presign-upload", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/presign-upload", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "filename required")

	store.On("PresignPut", mockAny, mockKeyPrefix("tasks/"), "application/octet-stream", constants.PresignURLTTL).
		Return("https://signed.example/put", nil).Once()

	rec = env.do(http.MethodGet, "/presign-upload?filename=report.pdf", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://signed.example/put", body["url"])
	assert.True(t, strings.HasPrefix(body["key"], "tasks/"))
	assert.True(t, strings.HasSuffix(body["key"], "_report.pdf"))
	store.AssertExpectations(t)
}

func TestDownloadFile(t *testing.T) {
	store := &mockObjectStore{}
	env := setupHandlerTestEnv(t, store)
	user, cookies := env.login(t, "alice", "alice@example.com")
	task := env.createTask(t, "With files", user.ID, nil, 0)

	comment := &models.Comment{
		TaskID:    task.ID,
		UserID:    user.ID,
		FileKeys:  []string{"comments/1_a.txt", "comments/2_b.txt"},
		FileNames: []string{"a.txt", "b.txt"},
	}
	require.NoError(t, env.commentRepo.Create(context.Background(), comment))

	store.On("PresignGet", mockAny, "comments/2_b.txt", constants.DownloadURLTTL).
		Return("https://signed.example/b", nil).Once()

	rec := env.do(http.MethodGet, "/download-file/"+task.ID+"?commentId="+comment.ID+"&fileIndex=1", nil, cookies)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://signed.example/b", rec.Header().Get("Location"))

	rec = env.do(http.MethodGet, "/download-file/"+task.ID+"?commentId="+comment.ID+"&fileIndex=5", nil, cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store.AssertExpectations(t)
}

func TestNotFoundPage(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/no-such-page", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The page you are looking for does not exist.")
}
