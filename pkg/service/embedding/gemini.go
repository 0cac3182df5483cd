package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/adapter"
)

// Gemini embeds text with the Vertex AI embedding model truncated to dims
type Gemini struct {
	client adapter.Gemini
	dims   int
}

func NewGemini(client adapter.Gemini, dims int) *Gemini {
	return &Gemini{client: client, dims: dims}
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	vec, err := g.client.Embedding(ctx, text, g.dims)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get gemini embedding")
	}

	// Truncated gemini embeddings are not unit length
	return normalize(vec), nil
}

func (g *Gemini) Dimensions() int {
	return g.dims
}
