package interfaces

import (
	"context"

	"github.com/m-mizutani/recall/pkg/model"
)

// LLM generates the next assistant message for a transcript.
// Passing nil tools disables tool calling for the request.
type LLM interface {
	Generate(ctx context.Context, messages []*model.Message, tools []*model.ToolSpec) (*model.Message, error)
}

// Embedder converts text into a dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
