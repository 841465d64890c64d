// Package client talks to the remote task service over its REST API.
package client

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

	"github.com/dori/tasklist/internal/model"
)

// DefaultBaseURL is where the task service listens unless configured otherwise
const DefaultBaseURL = "http://localhost:5000"

// ErrServiceCall is wrapped by every error the client returns. Connectivity
// failures, non-2xx responses and malformed payloads are not distinguished.
var ErrServiceCall = errors.New("task service call failed")

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 4 << 20

// Client is a TaskService backed by HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. nil is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for the service rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root this client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches every task in server order
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	body, err := c.do(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if err := model.ValidateTaskListJSON(body); err != nil {
		return nil, fmt.Errorf("list tasks: %w: %v", ErrServiceCall, err)
	}

	tasks := []model.Task{}
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w: %v", ErrServiceCall, err)
	}
	return tasks, nil
}

// Create adds a task with the given title and returns the stored record
func (c *Client) Create(ctx context.Context, title string) (model.Task, error) {
	task, err := c.sendTask(ctx, http.MethodPost, "/tasks", struct {
		Title string `json:"title"`
	}{Title: title})
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Update applies a partial update and returns the full updated record
func (c *Client) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	task, err := c.sendTask(ctx, http.MethodPut, taskPath(id), patch)
	if err != nil {
		return model.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return task, nil
}

// Delete removes a task. Any 2xx response counts as success.
func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, taskPath(id), nil); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func (c *Client) sendTask(ctx context.Context, method, path string, payload interface{}) (model.Task, error) {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return model.Task{}, err
	}
	if err := model.ValidateTaskJSON(body); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", ErrServiceCall, err)
	}

	var task model.Task
	if err := json.Unmarshal(body, &task); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", ErrServiceCall, err)
	}
	return task, nil
}

// do performs one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encode request: %v", ErrServiceCall, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceCall, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceCall, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrServiceCall, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}
	return body, nil
}

// StatusError reports a non-2xx response. It matches ErrServiceCall.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is makes errors.Is(err, ErrServiceCall) true for status errors
func (e *StatusError) Is(target error) bool {
	return target == ErrServiceCall
}

// errorMessage extracts {"error": "..."} bodies, falling back to raw text
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
