package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/adapter"
	"github.com/m-mizutani/recall/pkg/model"
	"google.golang.org/genai"
)

// Gemini implements interfaces.LLM with genai function calling
type Gemini struct {
	client adapter.Gemini
}

func NewGemini(client adapter.Gemini) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Generate(ctx context.Context, messages []*model.Message, tools []*model.ToolSpec) (*model.Message, error) {
	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		Temperature: ptrFloat32(0.0),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	if system := systemInstruction(messages); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}

	if tools != nil {
		spec, err := toGenaiTool(tools)
		if err != nil {
			return nil, err
		}
		config.Tools = []*genai.Tool{spec}
	}

	contents := toGenaiContents(messages)
	resp, err := g.client.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}

	return fromGenaiResponse(resp)
}

func toGenaiTool(tools []*model.ToolSpec) (*genai.Tool, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		params, err := toGenaiSchema(t.Parameters)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert tool schema", goerr.V("tool", t.Name))
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return &genai.Tool{FunctionDeclarations: decls}, nil
}

func toGenaiContents(messages []*model.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))

		case model.RoleAssistant:
			content := &genai.Content{Role: genai.RoleModel}
			if msg.Content != "" || msg.ToolCall == nil {
				content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
			}
			if msg.ToolCall != nil {
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   msg.ToolCall.ID,
						Name: msg.ToolCall.Name,
						Args: msg.ToolCall.Arguments,
					},
				})
			}
			contents = append(contents, content)

		case model.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					{
						FunctionResponse: &genai.FunctionResponse{
							ID:       msg.ToolCallID,
							Name:     msg.ToolName,
							Response: map[string]any{"result": msg.Content},
						},
					},
				},
			})
		}
	}
	return contents
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) (*model.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.Wrap(ErrEmptyResponse, "no candidate in gemini response")
	}

	var texts []string
	reply := model.NewAssistantMessage("")
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
		// Only the first function call is honored; the loop runs one tool per step
		if part.FunctionCall != nil && reply.ToolCall == nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = newCallID()
			}
			reply.ToolCall = &model.ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			}
		}
	}
	reply.Content = strings.Join(texts, "")

	return reply, nil
}
