package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "mistralai/mistral-small-3.2-24b-instruct:free"
	DefaultMaxTokens = 300
)

var (
	// ErrEmptyResponse means the provider answered without assistant text.
	ErrEmptyResponse = errors.New("empty response from chat provider")
	// ErrUnavailable wraps transport and upstream API failures.
	ErrUnavailable = errors.New("chat provider unavailable")
	// ErrNotConfigured means no API key was supplied.
	ErrNotConfigured = errors.New("chat provider is not configured")
)

// Config describes an OpenAI-compatible chat completion endpoint.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client sends a system prompt and one user message to an OpenAI-compatible
// chat completion endpoint (OpenRouter by default).
type Client struct {
	HTTPClient *http.Client
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int

	api *openai.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	c := &Client{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		MaxTokens:  cfg.MaxTokens,
	}
	c.api = c.newAPI()
	return c
}

func (c *Client) newAPI() *openai.Client {
	oc := openai.DefaultConfig(c.APIKey)
	oc.BaseURL = strings.TrimRight(c.BaseURL, "/")
	oc.HTTPClient = c.HTTPClient
	return openai.NewClientWithConfig(oc)
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.HTTPClient = hc
	c.api = c.newAPI()
	return c
}

// Complete returns the trimmed assistant reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.APIKey == "" {
		return "", ErrNotConfigured
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("chat completion: status=%d %s: %w", apiErr.HTTPStatusCode, apiErr.Message, ErrUnavailable)
		}
		return "", fmt.Errorf("chat completion: %v: %w", err, ErrUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyResponse
	}
	return answer, nil
}
