// Package functions implements the serverless entry points. Each function takes a
// Request and returns a Response with a JSON body; hosts adapt them to net/http or
// API Gateway events.
package functions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/yukikurage/taskflow/internal/auth"
	"github.com/yukikurage/taskflow/internal/services"
)

type Request struct {
	Method     string
	Path       string
	PathParams map[string]string
	Query      map[string]string
	Headers    map[string]string
	Body       string
}

type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Handler is one serverless function.
type Handler func(ctx context.Context, req Request) Response

// TokenVerifier validates bearer tokens on the task functions.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Functions struct {
	auth        *services.AuthService
	users       *services.UserService
	tasks       *services.TaskService
	attachments *services.AttachmentService
	tokens      TokenVerifier
}

func New(authService *services.AuthService, users *services.UserService, tasks *services.TaskService, attachments *services.AttachmentService, tokens TokenVerifier) *Functions {
	return &Functions{
		auth:        authService,
		users:       users,
		tasks:       tasks,
		attachments: attachments,
		tokens:      tokens,
	}
}

// Handlers returns every function by name, each wrapped with CORS handling.
func (f *Functions) Handlers() map[string]Handler {
	handlers := map[string]Handler{
		"register":        f.Register,
		"login":           f.Login,
		"getAllUsers":     f.ListUsers,
		"searchUsers":     f.SearchUsers,
		"getProfile":      f.GetProfile,
		"createTask":      f.CreateTask,
		"listTasks":       f.ListTasks,
		"updateTask":      f.UpdateTask,
		"deleteTask":      f.DeleteTask,
		"presignUpload":   f.PresignUpload,
		"presignDownload": f.PresignDownload,
	}
	for name, h := range handlers {
		handlers[name] = withCORS(h)
	}
	return handlers
}

// Names lists the function names in a stable order.
func (f *Functions) Names() []string {
	names := make([]string, 0)
	for name := range f.Handlers() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
	}
}

func withCORS(h Handler) Handler {
	return func(ctx context.Context, req Request) Response {
		if strings.EqualFold(req.Method, http.MethodOptions) {
			return Response{StatusCode: http.StatusOK, Headers: corsHeaders(), Body: ""}
		}
		resp := h(ctx, req)
		headers := corsHeaders()
		for k, v := range resp.Headers {
			headers[k] = v
		}
		resp.Headers = headers
		return resp
	}
}

func jsonResponse(status int, body any) Response {
	b, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to encode function response", "error", err)
		return Response{StatusCode: http.StatusInternalServerError, Body: `{"success":false,"message":"Internal server error"}`}
	}
	return Response{StatusCode: status, Body: string(b)}
}

func failure(status int, message string) Response {
	return jsonResponse(status, map[string]any{"success": false, "message": message})
}

// header looks a header up case-insensitively.
func (r Request) header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (r Request) decode(v any) error {
	if strings.TrimSpace(r.Body) == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.Body), v)
}

// authenticate verifies the bearer token and returns the caller as an Actor.
func (f *Functions) authenticate(req Request) (services.Actor, bool) {
	token, ok := auth.BearerToken(req.header("Authorization"))
	if !ok {
		return services.Actor{}, false
	}
	claims, err := f.tokens.Verify(token)
	if err != nil {
		return services.Actor{}, false
	}
	return services.Actor{UserID: claims.UserID, Token: token}, true
}

// stringList decodes either a JSON array of strings or a comma separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var csv string
	if err := json.Unmarshal(data, &csv); err != nil {
		return err
	}
	var out []string
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}
