package functions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/auth"
	"github.com/yukikurage/taskflow/internal/database"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/services"
)

type testEnv struct {
	fns    *Functions
	tokens *auth.TokenIssuer
	h      map[string]Handler
}

func setupFunctions(t *testing.T) testEnv {
	t.Helper()

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	tokens := auth.NewTokenIssuer("test-secret")
	userRepo := repository.NewUserRepository(db)
	attachments := services.NewAttachmentService(nil)
	fns := New(
		services.NewAuthService(userRepo, tokens),
		services.NewUserService(userRepo, nil),
		services.NewTaskService(repository.NewTaskRepository(db), repository.NewCommentRepository(db), attachments, nil),
		attachments,
		tokens,
	)
	return testEnv{fns: fns, tokens: tokens, h: fns.Handlers()}
}

func decodeBody(t *testing.T, resp Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func assertCORS(t *testing.T, resp Response) {
	t.Helper()
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.NotEmpty(t, resp.Headers["Access-Control-Allow-Methods"])
	assert.NotEmpty(t, resp.Headers["Access-Control-Allow-Headers"])
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupFunctions(t)
	ctx := context.Background()

	resp := env.h["register"](ctx, Request{Method: "POST", Body: `{"username":"alice","email":"alice@example.com","password":"secret1"}`})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assertCORS(t, resp)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["Username"])
	assert.Equal(t, "User", user["Role"])
	assert.NotContains(t, resp.Body, "PasswordHash")

	resp = env.h["register"](ctx, Request{Method: "POST", Body: `{"username":"alice2","email":"alice@example.com","password":"secret1"}`})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User with this email already exists", decodeBody(t, resp)["message"])

	resp = env.h["register"](ctx, Request{Method: "POST", Body: `{"username":"bob"}`})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.h["login"](ctx, Request{Method: "POST", Body: `{"email":"alice@example.com","password":"nope123"}`})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.h["login"](ctx, Request{Method: "POST", Body: `{"email":"alice@example.com"}`})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.h["login"](ctx, Request{Method: "POST", Body: `{"email":"alice@example.com","password":"secret1"}`})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)
	claims, err := env.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user["UserID"], claims.UserID)
}

func TestOptionsPreflight(t *testing.T) {
	env := setupFunctions(t)

	for name, h := range env.h {
		resp := h(context.Background(), Request{Method: "OPTIONS"})
		assert.Equal(t, http.StatusOK, resp.StatusCode, name)
		assert.Empty(t, resp.Body, name)
		assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"], name)
	}
}

func TestListUsersHidesPasswords(t *testing.T) {
	env := setupFunctions(t)
	ctx := context.Background()
	env.h["register"](ctx, Request{Method: "POST", Body: `{"username":"alice","email":"a@example.com","password":"secret1"}`})

	resp := env.h["getAllUsers"](ctx, Request{Method: "GET"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 1, body["count"])
	assert.NotContains(t, resp.Body, "$2a$")
}

func TestCreateTaskDefaults(t *testing.T) {
	env := setupFunctions(t)

	resp := env.h["createTask"](context.Background(), Request{Method: "POST", Body: `{"assignedUsers":"u2, u3"}`})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	task := decodeBody(t, resp)["task"].(map[string]any)
	assert.Equal(t, "Untitled", task["Name"])
	assert.Equal(t, "unknown", task["CreatedBy"])
	assert.Equal(t, []any{"u2", "u3"}, task["AssignedTo"])
	assert.NotEmpty(t, task["TaskID"])
}

func TestTaskFunctionsRequireBearer(t *testing.T) {
	env := setupFunctions(t)
	ctx := context.Background()

	resp := env.h["listTasks"](ctx, Request{Method: "GET"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := env.tokens.Issue("u1", "a@example.com", "User")
	require.NoError(t, err)
	headers := map[string]string{"authorization": "Bearer " + token}

	resp = env.h["createTask"](ctx, Request{Method: "POST", Headers: headers, Body: `{"taskId":"t1","taskName":"Mine"}`})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.h["listTasks"](ctx, Request{Method: "GET", Headers: headers})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decodeBody(t, resp)["count"])

	other, err := env.tokens.Issue("u9", "z@example.com", "User")
	require.NoError(t, err)
	resp = env.h["updateTask"](ctx, Request{Method: "PUT", Headers: map[string]string{"Authorization": "Bearer " + other}, PathParams: map[string]string{"id": "t1"}, Body: `{"taskName":"Theirs"}`})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.h["deleteTask"](ctx, Request{Method: "DELETE", Headers: headers, PathParams: map[string]string{"id": "missing"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.h["deleteTask"](ctx, Request{Method: "DELETE", Headers: headers, PathParams: map[string]string{"id": "t1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPresignValidation(t *testing.T) {
	env := setupFunctions(t)
	ctx := context.Background()

	resp := env.h["presignUpload"](ctx, Request{Method: "GET", Query: map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "filename required", decodeBody(t, resp)["error"])

	resp = env.h["presignDownload"](ctx, Request{Method: "GET"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "key required", decodeBody(t, resp)["error"])

	// No bucket configured
	resp = env.h["presignUpload"](ctx, Request{Method: "GET", Query: map[string]string{"filename": "a.txt"}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assertCORS(t, resp)
}

func TestHTTPHandler(t *testing.T) {
	env := setupFunctions(t)
	srv := httptest.NewServer(env.fns.HTTPHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/register", "application/json", strings.NewReader(`{"username":"alice","email":"a@example.com","password":"secret1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer preflight.Body.Close()
	assert.Less(t, preflight.StatusCode, 300)
	assert.Equal(t, "*", preflight.Header.Get("Access-Control-Allow-Origin"))
}

func TestLambdaHandler(t *testing.T) {
	env := setupFunctions(t)

	_, err := env.fns.LambdaHandler("nope")
	assert.Error(t, err)

	handler, err := env.fns.LambdaHandler("presignDownload")
	require.NoError(t, err)

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "GET"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
}
