// Package llm provides the chat-completion collaborator boundary: an
// OpenAI-compatible HTTP client plus the prompt builders for SQL
// generation, chart suggestions, and narrative insights. The rest of
// the system depends only on the Client interface and degrades
// gracefully when the collaborator is absent or failing.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client sends a chat conversation to a completion provider and
// returns the assistant's text.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config holds HTTP client configuration.
type Config struct {
	// Endpoint is the chat completions URL, e.g.
	// https://api.openai.com/v1/chat/completions.
	Endpoint string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model names the completion model.
	Model string

	// Temperature controls sampling; kept low for deterministic
	// SQL and JSON output.
	Temperature float64

	// MaxTokens bounds the completion length.
	MaxTokens int

	// Timeout bounds each request. The core performs no retries;
	// callers own retry policy.
	Timeout time.Duration
}

// HTTPClient is an OpenAI-compatible chat completions client.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates a chat completions client. If logger is nil, a
// discard logger is used.
func NewHTTPClient(cfg Config, logger *slog.Logger) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("completion endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// StatusError reports a non-2xx response from the completion provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion request failed with status %d: %s", e.StatusCode, e.Body)
}

// Complete sends the conversation and returns the first choice's
// content.
func (c *HTTPClient) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("sending completion request", slog.String("model", c.cfg.Model), slog.Int("messages", len(messages)))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
