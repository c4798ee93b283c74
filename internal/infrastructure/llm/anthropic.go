package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"CompetitorScanner/internal/ports"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 4096
)

// Config holds the Anthropic client settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Client adapts the Anthropic Messages API to the TextGenerator port.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

var _ ports.TextGenerator = (*Client)(nil)

// NewClient builds the adapter; the API key is required.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is empty")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Generate sends prompt as a single user message and concatenates the text
// blocks of the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("anthropic reply contained no text blocks")
	}
	c.debug("anthropic reply received", "model", c.model, "chars", len(text))
	return text, nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
