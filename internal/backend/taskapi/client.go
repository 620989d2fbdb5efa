// Package taskapi implements the service.Service interface using the task manager web API.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"aitask/internal/config"
	"aitask/internal/service"
)

const (
	// APITimeout is the default timeout for API calls. Creating a task blocks
	// on the backend's AI classifier, so it is well above a plain round trip.
	APITimeout = 30 * time.Second

	// RequestIDHeader carries a per-request correlation ID.
	RequestIDHeader = "X-Request-ID"

	maxBodySize = 4 << 20
)

// Client implements service.Service over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
}

var _ service.Service = (*Client)(nil)

// New creates a client for the configured base URL. If a token has been
// stored with "aitask login" it is sent as a bearer token on every request.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	token, err := cfg.LoadToken()
	if err != nil {
		return nil, err
	}

	httpClient := http.DefaultClient
	if token != nil {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}

	return NewWithHTTPClient(cfg.BaseURL, httpClient, cfg.Timeout)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// A non-positive timeout selects APITimeout.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %s", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: timeout,
	}, nil
}

// CreateTask submits a new task. The backend classifies it before answering.
func (c *Client) CreateTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/tasks/", nil, task)
	if err != nil {
		return service.Task{}, err
	}
	return decodeTask(body)
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id int) (service.Task, error) {
	body, err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil)
	if err != nil {
		return service.Task{}, err
	}
	return decodeTask(body)
}

// ListUserTasks returns all tasks belonging to a user, in API order.
func (c *Client) ListUserTasks(ctx context.Context, userID string) ([]service.Task, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/tasks", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeTasks(body)
}

// UpdateTask applies a partial update and returns the updated task.
func (c *Client) UpdateTask(ctx context.Context, id int, update service.TaskUpdate) (service.Task, error) {
	body, err := c.do(ctx, http.MethodPut, taskPath(id), nil, update)
	if err != nil {
		return service.Task{}, err
	}
	return decodeTask(body)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
	return err
}

// ProviderStatus returns the AI provider configuration held by the backend.
func (c *Client) ProviderStatus(ctx context.Context) (service.ProviderStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/config", nil, nil)
	if err != nil {
		return service.ProviderStatus{}, err
	}

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		service.ProviderStatus
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return service.ProviderStatus{}, fmt.Errorf("%w: %v", service.ErrInvalidResponse, err)
	}
	if resp.Status != "success" {
		return service.ProviderStatus{}, statusError(resp.Message, "could not retrieve configuration")
	}
	return resp.ProviderStatus, nil
}

// UpdateProvider replaces the backend's AI provider configuration and
// returns the backend's confirmation message.
func (c *Client) UpdateProvider(ctx context.Context, cfg service.ProviderConfig) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/update-config", nil, cfg)
	if err != nil {
		return "", err
	}

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", service.ErrInvalidResponse, err)
	}
	if resp.Status != "success" {
		return "", statusError(resp.Message, "failed to update configuration")
	}
	return resp.Message, nil
}

// Health reports backend health. When cfg is non-nil the backend checks
// that provider configuration instead of its current one.
func (c *Client) Health(ctx context.Context, cfg *service.ProviderConfig) (service.HealthStatus, error) {
	var query url.Values
	if cfg != nil {
		query = url.Values{
			"provider_url": {cfg.ProviderURL},
			"api_token":    {cfg.APIToken},
			"model_name":   {cfg.ModelName},
		}
	}

	body, err := c.do(ctx, http.MethodGet, "/api/health", query, nil)
	if err != nil {
		return service.HealthStatus{}, err
	}

	var status service.HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return service.HealthStatus{}, fmt.Errorf("%w: %v", service.ErrInvalidResponse, err)
	}
	if status.Status == "" {
		return service.HealthStatus{}, fmt.Errorf("%w: missing status", service.ErrInvalidResponse)
	}
	return status, nil
}

func taskPath(id int) string {
	return "/api/tasks/" + strconv.Itoa(id)
}

// do performs one API call under the client timeout and returns the response
// body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := log.FromContext(ctx)
	logger.Debug("request", "method", method, "path", path, "request_id", requestID)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer res.Body.Close()

	logger.Debug("response", "status", res.StatusCode, "request_id", requestID, "elapsed", time.Since(start))

	if err := googleapi.CheckResponse(res); err != nil {
		return nil, wrapError(err)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, wrapError(err)
	}
	return body, nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request cancelled")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := errorMessage(apiErr)
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", service.ErrUnauthorized, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", service.ErrNotFound, msg)
		default:
			return fmt.Errorf("HTTP %d: %s", apiErr.Code, msg)
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("could not reach %s: %w", urlErr.URL, urlErr.Err)
	}
	return err
}

// errorMessage extracts the human-readable message from an error body. The
// web API reports errors as {"detail": ...}, {"error": ...} or
// {"status": "error", "message": ...} depending on the route.
func errorMessage(apiErr *googleapi.Error) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(apiErr.Body), &body); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if msg := rawMessage(body[key]); msg != "" {
				return msg
			}
		}
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if text := strings.TrimSpace(apiErr.Body); text != "" && len(text) <= 200 {
		return text
	}
	return strings.ToLower(http.StatusText(apiErr.Code))
}

// rawMessage renders a JSON value as a message: strings as-is, anything else
// (e.g. a list of validation failures) in compact JSON.
func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}

func statusError(message, fallback string) error {
	if message = strings.TrimSpace(message); message == "" {
		message = fallback
	}
	return errors.New(message)
}
