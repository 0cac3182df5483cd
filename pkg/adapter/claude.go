package adapter

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

// Claude is the interface for Claude API client
type Claude interface {
	// CreateMessage sends a message request to Claude and returns the response
	CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
	// Model returns the model name used for requests
	Model() anthropic.Model
}

type ClaudeOption func(*claudeClient)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeClient) {
		c.model = anthropic.Model(model)
	}
}

// claudeClient implements Claude interface
type claudeClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewClaude creates a new Claude API client
func NewClaude(apiKey string, opts ...ClaudeOption) Claude {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	c := &claudeClient{
		client: &client,
		model:  anthropic.ModelClaudeSonnet4_5_20250929,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *claudeClient) Model() anthropic.Model {
	return c.model
}

func (c *claudeClient) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if params.Model == "" {
		params.Model = c.model
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create claude message", goerr.V("model", params.Model))
	}
	return msg, nil
}
