package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
)

// Client talks to a separately deployed task API. Every method is a single attempt
// bounded by the client timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns nil when baseURL is empty, meaning no remote API is configured.
func New(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Message string `json:"message"`
}

// do sends the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path, token string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindOther, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindOther, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(data, &env)
		return nil, &Error{Op: op, Kind: statusKind(resp.StatusCode), Status: resp.StatusCode, Message: env.Message}
	}
	return data, nil
}

type authResponse struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Token   string                     `json:"token"`
	User    map[string]json.RawMessage `json:"user"`
}

func (c *Client) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	data, err := c.do(ctx, "register", http.MethodPost, "/register", "", map[string]string{
		"username": input.Username,
		"email":    input.Email,
		"password": input.Password,
	})
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &Error{Op: "register", Kind: KindDecode, Err: err}
	}
	if !resp.Success {
		return nil, &Error{Op: "register", Kind: KindStatus, Message: resp.Message}
	}
	user := UserFromWire(resp.User)
	return &user, nil
}

// Login maps a 401 from the remote API onto services.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error) {
	data, err := c.do(ctx, "login", http.MethodPost, "/login", "", map[string]string{
		"email":    input.Email,
		"password": input.Password,
	})
	if err != nil {
		var re *Error
		if errors.As(err, &re) && re.Kind == KindUnauthorized {
			re.Err = services.ErrInvalidCredentials
		}
		return nil, err
	}

	var resp authResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &Error{Op: "login", Kind: KindDecode, Err: err}
	}
	if !resp.Success || resp.Token == "" {
		return nil, &Error{Op: "login", Kind: KindStatus, Message: resp.Message, Err: services.ErrInvalidCredentials}
	}

	user := UserFromWire(resp.User)
	return &services.LoginResult{User: &user, Token: resp.Token}, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	return c.users(ctx, "list users", "/users", token)
}

func (c *Client) SearchUsers(ctx context.Context, token, query string) ([]models.User, error) {
	return c.users(ctx, "search users", "/users/search?q="+url.QueryEscape(query), token)
}

func (c *Client) users(ctx context.Context, op, path, token string) ([]models.User, error) {
	data, err := c.do(ctx, op, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeList(data, "users", "Items", "items")
	if err != nil {
		return nil, &Error{Op: op, Kind: KindDecode, Err: err}
	}
	users := make([]models.User, 0, len(records))
	for _, r := range records {
		if u := UserFromWire(r); u.ID != "" {
			users = append(users, u)
		}
	}
	return users, nil
}

func (c *Client) ListTasks(ctx context.Context, token string) ([]models.Task, error) {
	data, err := c.do(ctx, "list tasks", http.MethodGet, "/tasks", token, nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeList(data, "tasks", "Items", "items")
	if err != nil {
		return nil, &Error{Op: "list tasks", Kind: KindDecode, Err: err}
	}
	tasks := make([]models.Task, 0, len(records))
	for _, r := range records {
		if t := TaskFromWire(r); t.ID != "" {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, token string, task *models.Task) error {
	_, err := c.do(ctx, "create task", http.MethodPost, "/tasks", token, taskToWire(task))
	return err
}

func (c *Client) UpdateTask(ctx context.Context, token string, task *models.Task) error {
	_, err := c.do(ctx, "update task", http.MethodPut, "/tasks/"+url.PathEscape(task.ID), token, taskToWire(task))
	return err
}

func (c *Client) DeleteTask(ctx context.Context, token, taskID string) error {
	_, err := c.do(ctx, "delete task", http.MethodDelete, fmt.Sprintf("/tasks/%s", url.PathEscape(taskID)), token, nil)
	return err
}
