package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orrery/internal/config"
)

// Source defines the archive read operations used by the synchronization
// engine.
type Source interface {
	Snapshot(ctx context.Context) ([]Row, error)
	Fetch(ctx context.Context, identity string) (*Record, error)
}

// Client provides read-only access to the remote candidate archive.
type Client struct {
	baseURL    string
	table      string
	httpClient *http.Client
}

var _ Source = (*Client)(nil)

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

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates an archive client for the given base URL and table.
func New(baseURL, table string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("archive base url required")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("archive table required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		table:      table,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig creates an archive client from the archive config section.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	timeout := time.Duration(cfg.Archive.TimeoutSeconds) * time.Second
	combined := append([]Option{WithTimeout(timeout)}, opts...)
	return New(cfg.Archive.BaseURL, cfg.Archive.Table, combined...)
}

// Snapshot fetches the identity and disposition of every row in the table.
// The projection keeps the payload small; full fields are fetched per record
// only once a record is known to be new.
func (c *Client) Snapshot(ctx context.Context) ([]Row, error) {
	endpoint, err := url.Parse(c.baseURL + "/" + url.PathEscape(c.table))
	if err != nil {
		return nil, fmt.Errorf("parse archive url: %w", err)
	}
	params := url.Values{}
	params.Set("fields", "identity,disposition")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive snapshot returned %d", resp.StatusCode)
	}

	var rows []Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return rows, nil
}

// Fetch retrieves the full field set for one identity.
func (c *Client) Fetch(ctx context.Context, identity string) (*Record, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, errors.New("identity must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/" + url.PathEscape(c.table) + "/" + url.PathEscape(identity))
	if err != nil {
		return nil, fmt.Errorf("parse archive url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch record %s: %w", identity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive record %s returned %d", identity, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", identity, err)
	}
	record, err := parseRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("parse record %s: %w", identity, err)
	}
	return record, nil
}
