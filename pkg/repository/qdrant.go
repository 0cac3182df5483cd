package repository

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

const (
	payloadTopic       = "topic"
	payloadInformation = "information"
	payloadCreatedAt   = "created_at"

	qdrantMaxMessageSize = 16 * 1024 * 1024
)

// QdrantConfig holds connection settings for a Qdrant server
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// Qdrant stores memories in a Qdrant collection with cosine distance
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dims       int
}

// NewQdrant connects to Qdrant and creates the collection when missing
func NewQdrant(ctx context.Context, cfg QdrantConfig, dims int) (*Qdrant, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(qdrantMaxMessageSize),
				grpc.MaxCallSendMsgSize(qdrantMaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create qdrant client",
			goerr.V("host", cfg.Host),
			goerr.V("port", cfg.Port))
	}

	q := &Qdrant{
		client:     client,
		collection: cfg.Collection,
		dims:       dims,
	}

	if err := q.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return q, nil
}

func (q *Qdrant) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return goerr.Wrap(err, "failed to check qdrant collection", goerr.V("collection", q.collection))
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create qdrant collection",
			goerr.V("collection", q.collection),
			goerr.V("dims", q.dims))
	}
	return nil
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}

func (q *Qdrant) Dimensions() int {
	return q.dims
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func (q *Qdrant) PutMemory(ctx context.Context, memory *model.Memory) error {
	if err := checkVector(memory.Embedding, q.dims); err != nil {
		return err
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(string(memory.ID)),
				Vectors: qdrant.NewVectors(memory.Embedding...),
				Payload: map[string]*qdrant.Value{
					payloadTopic:       stringValue(memory.Topic),
					payloadInformation: stringValue(memory.Information),
					payloadCreatedAt:   stringValue(memory.CreatedAt.UTC().Format(time.RFC3339Nano)),
				},
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upsert memory to qdrant",
			goerr.V("id", memory.ID),
			goerr.V("collection", q.collection))
	}
	return nil
}

// SearchMemories returns Qdrant's cosine similarity plus 1.0
func (q *Qdrant) SearchMemories(ctx context.Context, vector []float32, limit int) ([]*model.ScoredMemory, error) {
	if err := checkVector(vector, q.dims); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query qdrant", goerr.V("collection", q.collection))
	}

	results := make([]*model.ScoredMemory, 0, len(points))
	for _, point := range points {
		memory := &model.Memory{
			ID: model.MemoryID(point.GetId().GetUuid()),
		}
		for k, v := range point.GetPayload() {
			s := v.GetStringValue()
			switch k {
			case payloadTopic:
				memory.Topic = s
			case payloadInformation:
				memory.Information = s
			case payloadCreatedAt:
				memory.CreatedAt, _ = time.Parse(time.RFC3339Nano, s)
			}
		}

		results = append(results, &model.ScoredMemory{
			Memory: memory,
			Score:  float64(point.GetScore()) + scoreOffset,
		})
	}

	return results, nil
}
