package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orrery/internal/catalog"
	"orrery/internal/config"
	"orrery/internal/taxonomy"
)

const defaultHTTPTimeout = 30 * time.Second

// ErrNotConfigured is returned when no assistant API key is set.
var ErrNotConfigured = errors.New("assistant not configured")

// Client wraps a chat-completion API to answer questions about candidates.
// Single attempt per question, no retries; the assistant is a convenience
// surface, not part of the synchronization engine.
type Client struct {
	cfg        config.Assistant
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs an assistant client from the assistant config section.
func New(cfg config.Assistant, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask answers a free-form question about one candidate. The candidate's
// persisted fields, status, and designation are formatted into the prompt so
// the model grounds its answer in the record at hand.
func (c *Client) Ask(ctx context.Context, candidate *catalog.Candidate, question string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("question must not be empty")
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: formatPrompt(candidate, question)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("assistant returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("assistant returned no choices")
	}
	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if answer == "" {
		return "", errors.New("assistant returned empty content")
	}
	return answer, nil
}

const systemPrompt = "You are an assistant for an exoplanet candidate catalog. " +
	"Answer concisely using only the record provided; say so when the record does not contain the answer."

func formatPrompt(candidate *catalog.Candidate, question string) string {
	var builder strings.Builder
	if candidate != nil {
		fmt.Fprintf(&builder, "Record %s, status %s", candidate.Identity, candidate.Status)
		if candidate.AssignedName != "" {
			fmt.Fprintf(&builder, ", designated %s", candidate.AssignedName)
		}
		if category := taxonomy.CategorizeCandidate(candidate); category != taxonomy.CategoryUnknown {
			fmt.Fprintf(&builder, ", category %s", category)
		}
		if candidate.Verdict != nil {
			fmt.Fprintf(&builder, ", model verdict %s (confidence %.2f)",
				candidate.Verdict.Label, candidate.Verdict.Confidence)
		}
		builder.WriteString(".\n")
		if candidate.FieldsJSON != "" {
			builder.WriteString("Measured fields: ")
			builder.WriteString(candidate.FieldsJSON)
			builder.WriteString("\n")
		}
	}
	builder.WriteString("Question: ")
	builder.WriteString(question)
	return builder.String()
}
