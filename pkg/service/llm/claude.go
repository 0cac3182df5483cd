package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/adapter"
	"github.com/m-mizutani/recall/pkg/model"
)

const defaultClaudeMaxTokens = 4096

// Claude implements interfaces.LLM with Anthropic tool use
type Claude struct {
	client    adapter.Claude
	maxTokens int64
}

type ClaudeOption func(*Claude)

func WithMaxTokens(n int64) ClaudeOption {
	return func(c *Claude) {
		c.maxTokens = n
	}
}

func NewClaude(client adapter.Claude, opts ...ClaudeOption) *Claude {
	c := &Claude{
		client:    client,
		maxTokens: defaultClaudeMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Claude) Generate(ctx context.Context, messages []*model.Message, tools []*model.ToolSpec) (*model.Message, error) {
	params := anthropic.MessageNewParams{
		Model:       c.client.Model(),
		MaxTokens:   c.maxTokens,
		Messages:    toClaudeMessages(messages),
		Temperature: anthropic.Float(0),
	}

	if system := systemInstruction(messages); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	for _, t := range tools {
		schema, err := toClaudeSchema(t.Parameters)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert tool schema", goerr.V("tool", t.Name))
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}})
	}

	resp, err := c.client.CreateMessage(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}

	return fromClaudeResponse(resp)
}

func toClaudeMessages(messages []*model.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleUser:
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(nonEmpty(msg.Content))))

		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if strings.TrimSpace(msg.Content) != "" || msg.ToolCall == nil {
				blocks = append(blocks, anthropic.NewTextBlock(nonEmpty(msg.Content)))
			}
			if msg.ToolCall != nil {
				blocks = append(blocks, anthropic.NewToolUseBlock(msg.ToolCall.ID, msg.ToolCall.Arguments, msg.ToolCall.Name))
			}
			params = append(params, anthropic.NewAssistantMessage(blocks...))

		case model.RoleTool:
			params = append(params, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, strings.HasPrefix(msg.Content, "Error:")),
			))
		}
	}
	return params
}

// nonEmpty substitutes a placeholder because the API rejects empty text blocks
func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "."
	}
	return s
}

func fromClaudeResponse(resp *anthropic.Message) (*model.Message, error) {
	if resp == nil || len(resp.Content) == 0 {
		return nil, goerr.Wrap(ErrEmptyResponse, "no content in claude response")
	}

	var texts []string
	reply := model.NewAssistantMessage("")
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			if reply.ToolCall != nil {
				continue
			}
			var args map[string]any
			if len(block.Input) > 0 {
				// A non-object input leaves args nil and is rejected by the tool parser
				_ = json.Unmarshal(block.Input, &args)
			}
			reply.ToolCall = &model.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			}
		}
	}
	reply.Content = strings.Join(texts, "")

	return reply, nil
}
