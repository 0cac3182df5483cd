package repository

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/philippgille/chromem-go"
)

const (
	metaTopic     = "topic"
	metaCreatedAt = "created_at"
)

// Chromem is an embedded vector store. Without a path it lives in memory only.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
	dims       int
}

type ChromemOption func(*chromemConfig)

type chromemConfig struct {
	path       string
	compress   bool
	collection string
}

// WithChromemPath persists the database under path
func WithChromemPath(path string, compress bool) ChromemOption {
	return func(c *chromemConfig) {
		c.path = path
		c.compress = compress
	}
}

func WithChromemCollection(name string) ChromemOption {
	return func(c *chromemConfig) {
		c.collection = name
	}
}

func NewChromem(dims int, opts ...ChromemOption) (*Chromem, error) {
	cfg := &chromemConfig{collection: DefaultCollection}
	for _, opt := range opts {
		opt(cfg)
	}

	db := chromem.NewDB()
	if cfg.path != "" {
		var err error
		db, err = chromem.NewPersistentDB(cfg.path, cfg.compress)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open chromem database", goerr.V("path", cfg.path))
		}
	}

	// Documents always carry their embedding, so the collection never embeds text itself
	col, err := db.GetOrCreateCollection(cfg.collection, nil, refuseEmbedding)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get chromem collection", goerr.V("collection", cfg.collection))
	}

	return &Chromem{
		db:         db,
		collection: col,
		dims:       dims,
	}, nil
}

func refuseEmbedding(_ context.Context, text string) ([]float32, error) {
	return nil, goerr.New("chromem collection does not embed text", goerr.V("text", text))
}

func (c *Chromem) Dimensions() int {
	return c.dims
}

func (c *Chromem) PutMemory(ctx context.Context, memory *model.Memory) error {
	if err := checkVector(memory.Embedding, c.dims); err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        string(memory.ID),
		Content:   memory.Information,
		Embedding: append([]float32(nil), memory.Embedding...),
		Metadata: map[string]string{
			metaTopic:     memory.Topic,
			metaCreatedAt: memory.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}

	if err := c.collection.AddDocument(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to add memory to chromem", goerr.V("id", memory.ID))
	}
	return nil
}

// SearchMemories returns cosine similarity plus 1.0. chromem normalizes
// vectors on insert and query, so its dot product is the cosine.
func (c *Chromem) SearchMemories(ctx context.Context, vector []float32, limit int) ([]*model.ScoredMemory, error) {
	if err := checkVector(vector, c.dims); err != nil {
		return nil, err
	}

	// chromem requires nResults <= document count
	count := c.collection.Count()
	if count == 0 || limit <= 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	hits, err := c.collection.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query chromem", goerr.V("limit", limit))
	}

	results := make([]*model.ScoredMemory, 0, len(hits))
	for _, hit := range hits {
		createdAt, _ := time.Parse(time.RFC3339Nano, hit.Metadata[metaCreatedAt])
		results = append(results, &model.ScoredMemory{
			Memory: &model.Memory{
				ID:          model.MemoryID(hit.ID),
				Topic:       hit.Metadata[metaTopic],
				Information: hit.Content,
				Embedding:   hit.Embedding,
				CreatedAt:   createdAt,
			},
			Score: float64(hit.Similarity) + scoreOffset,
		})
	}

	return results, nil
}
