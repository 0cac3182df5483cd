package embedding

import (
	"context"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/interfaces"
)

// Cached memoizes another embedder. Embeddings are deterministic for a
// fixed model, so a hit is always equal to a fresh computation.
type Cached struct {
	base  interfaces.Embedder
	cache *ristretto.Cache
}

// NewCached wraps base with a cache holding up to maxEntries vectors
func NewCached(base interfaces.Embedder, maxEntries int64) (*Cached, error) {
	if maxEntries <= 0 {
		maxEntries = 1024
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}

	return &Cached{base: base, cache: cache}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.base.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	// cost 1 per vector, so MaxCost counts entries
	c.cache.Set(text, vec, 1)
	return vec, nil
}

func (c *Cached) Dimensions() int {
	return c.base.Dimensions()
}

// Wait blocks until pending cache writes are applied
func (c *Cached) Wait() {
	c.cache.Wait()
}

func (c *Cached) Close() {
	c.cache.Close()
}
