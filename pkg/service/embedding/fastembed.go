//go:build cgo

package embedding

import (
	"context"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
	"github.com/m-mizutani/goerr/v2"
)

var fastEmbedModels = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"all-MiniLM-L6-v2":                       fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
}

var fastEmbedDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.AllMiniLML6V2: 384,
	fastembed.BGESmallENV15: 384,
	fastembed.BGEBaseENV15:  768,
}

// FastEmbed runs a local ONNX sentence embedding model
type FastEmbed struct {
	model *fastembed.FlagEmbedding
	dims  int
	mu    sync.Mutex
}

// NewFastEmbed loads modelName, downloading it into cacheDir on first use
func NewFastEmbed(modelName, cacheDir string) (*FastEmbed, error) {
	m, ok := fastEmbedModels[modelName]
	if !ok {
		return nil, goerr.New("unsupported fastembed model", goerr.V("model", modelName))
	}

	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}

	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                m,
		CacheDir:             cacheDir,
		MaxLength:            256,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize fastembed", goerr.V("model", modelName))
	}

	return &FastEmbed{
		model: flagEmbed,
		dims:  fastEmbedDimensions[m],
	}, nil
}

// Embed encodes text without query or passage prefixes so that stored
// information and retrieval topics share one vector space.
func (f *FastEmbed) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "context done before embedding")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	vectors, err := f.model.Embed([]string{text}, 1)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed text")
	}
	if len(vectors) != 1 {
		return nil, goerr.New("unexpected embedding count", goerr.V("count", len(vectors)))
	}
	return vectors[0], nil
}

func (f *FastEmbed) Dimensions() int {
	return f.dims
}

// Close releases the ONNX runtime session
func (f *FastEmbed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.model == nil {
		return nil
	}
	if err := f.model.Destroy(); err != nil {
		return goerr.Wrap(err, "failed to destroy fastembed model")
	}
	f.model = nil
	return nil
}
