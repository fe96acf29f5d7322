// Package ai wraps the chat completion service used for difficulty
// classification, summaries and debugging tips.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("ai completions are not configured")

// Prompt is a single system + user exchange expecting one text answer.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature *float64 // nil = model default
}

// Completer returns the model's answer to a prompt.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client is a Completer backed by the OpenAI chat completions API.
type Client struct {
	openai  openai.Client
	model   string
	timeout time.Duration
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		openai:  openai.NewClient(opts...),
		model:   model,
		timeout: cfg.Timeout,
	}, nil
}

func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	maxTokens := p.MaxTokens
	if maxTokens == 0 {
		maxTokens = 200
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if p.Temperature != nil {
		params.Temperature = openai.Float(*p.Temperature)
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	slog.DebugContext(ctx, "ai completion finished",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Disabled is the Completer used when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, Prompt) (string, error) {
	return "", ErrDisabled
}

// Temp returns a pointer for Prompt.Temperature.
func Temp(t float64) *float64 {
	return &t
}
