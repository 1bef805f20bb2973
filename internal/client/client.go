// Package client talks to the task service over its JSON API. Client
// implements board.TaskAPI so a board can be driven against a live server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"

	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task service: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("task service: %d %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the service at baseURL. A nil httpClient gets a
// client with a request timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	return c.authenticate(ctx, "/auth/login", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Session, error) {
	var payload models.AuthPayload
	if _, err := c.do(ctx, http.MethodPost, path, body, &payload, false); err != nil {
		return nil, err
	}
	return &Session{BaseURL: c.baseURL, Token: payload.Token, UserID: payload.ID, Username: payload.Username}, nil
}

// Logout tells the server to drop its cookie. The caller closes the session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, false)
	return err
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	return c.ListByStatus(ctx, "")
}

// ListByStatus lists the caller's tasks, restricted to status when it is
// not empty.
func (c *Client) ListByStatus(ctx context.Context, status models.Status) ([]models.Task, error) {
	path := "/tasks"
	if status != "" {
		path += "?" + url.Values{"status": {string(status)}}.Encode()
	}
	var tasks []models.Task
	if _, err := c.do(ctx, http.MethodGet, path, nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if _, err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	var task models.Task
	if _, err := c.do(ctx, http.MethodPost, "/tasks", req, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var task models.Task
	if _, err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), patch, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, true)
	return err
}

// do sends one request and unwraps the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any, auth bool) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, err
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		session, ok := SessionFrom(ctx)
		if !ok {
			return nil, errors.ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	log.WithFields(log.Fields{"method": method, "path": path, "status": resp.StatusCode}).Debug("task service call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, path, decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return &env, nil
}
