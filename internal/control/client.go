package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orrery/internal/api"
	"orrery/internal/config"
)

// ErrConflict indicates the daemon rejected a trigger because a pass is
// already running.
var ErrConflict = errors.New("synchronization pass already in progress")

// ErrNotFound indicates the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Client talks to a running daemon's control API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a control client for the given daemon address.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("daemon address required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig creates a control client for the configured bind address.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	return New(cfg.Paths.APIBind, cfg.Paths.APIToken, opts...)
}

// Status fetches daemon runtime state.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var response api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Sync triggers a pass and waits for it to finish. A 409 maps to
// ErrConflict; a pass-fatal failure returns the failed pass alongside the
// error.
func (c *Client) Sync(ctx context.Context) (*api.Pass, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/sync", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var response api.SyncResponse
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &response.Pass, nil
	case http.StatusConflict:
		return nil, ErrConflict
	case http.StatusBadGateway:
		var response api.SyncResponse
		if err := json.NewDecoder(resp.Body).Decode(&response); err == nil && response.Pass.ID != "" {
			return &response.Pass, fmt.Errorf("pass failed: %s", response.Pass.Message)
		}
		return nil, errors.New("pass failed")
	default:
		return nil, decodeError(resp)
	}
}

// Passes fetches the pass history, newest first.
func (c *Client) Passes(ctx context.Context, limit int) ([]api.Pass, error) {
	path := "/api/passes"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var response api.PassListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Passes, nil
}

// Stats fetches aggregate statistics.
func (c *Client) Stats(ctx context.Context) (*api.StatsResponse, error) {
	var response api.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Candidates lists catalog records, optionally filtered by status.
func (c *Client) Candidates(ctx context.Context, status string) ([]api.Candidate, error) {
	path := "/api/candidates"
	if status = strings.TrimSpace(status); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var response api.CandidateListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Candidates, nil
}

// Candidate fetches one record by identity.
func (c *Client) Candidate(ctx context.Context, identity string) (*api.Candidate, error) {
	var response api.CandidateResponse
	path := "/api/candidates/" + url.PathEscape(identity)
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return &response.Candidate, nil
}

// SchedulerStart arms the periodic trigger.
func (c *Client) SchedulerStart(ctx context.Context) (*api.SchedulerStatus, error) {
	return c.schedulerAction(ctx, "/api/scheduler/start", nil)
}

// SchedulerStop disarms the periodic trigger.
func (c *Client) SchedulerStop(ctx context.Context) (*api.SchedulerStatus, error) {
	return c.schedulerAction(ctx, "/api/scheduler/stop", nil)
}

// SchedulerRestart rearms the trigger with the current schedule.
func (c *Client) SchedulerRestart(ctx context.Context) (*api.SchedulerStatus, error) {
	return c.schedulerAction(ctx, "/api/scheduler/restart", nil)
}

// SchedulerConfigure installs a new pattern and timezone.
func (c *Client) SchedulerConfigure(ctx context.Context, pattern, timezone string) (*api.SchedulerStatus, error) {
	return c.schedulerAction(ctx, "/api/scheduler/configure",
		api.ConfigureRequest{Pattern: pattern, Timezone: timezone})
}

func (c *Client) schedulerAction(ctx context.Context, path string, body any) (*api.SchedulerStatus, error) {
	var response api.SchedulerStatus
	if err := c.do(ctx, http.MethodPost, path, body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Ask sends a question about a record to the assistant.
func (c *Client) Ask(ctx context.Context, identity, question string) (string, error) {
	var response api.AssistantResponse
	err := c.do(ctx, http.MethodPost, "/api/assistant",
		api.AssistantRequest{Identity: identity, Question: question}, &response)
	if err != nil {
		return "", err
	}
	return response.Answer, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("daemon returned %d", resp.StatusCode)
}
