package repository

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/interfaces"
	"github.com/m-mizutani/recall/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	historyCollection = "histories"
	distanceField     = "vector_distance"

	// Firestore rejects nearest-neighbor limits above this value
	maxFindNearestLimit = 1000
)

// Firestore stores memories with native vector search and keeps history metadata
type Firestore struct {
	client     *firestore.Client
	collection string
	dims       int
}

type FirestoreOption func(*Firestore)

func WithFirestoreCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		if name != "" {
			f.collection = name
		}
	}
}

// NewFirestore connects to databaseID in projectID. Memory vectors must have dims elements.
func NewFirestore(ctx context.Context, projectID, databaseID string, dims int, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	f := &Firestore{
		client:     client,
		collection: DefaultCollection,
		dims:       dims,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Dimensions() int {
	return f.dims
}

func (f *Firestore) PutMemory(ctx context.Context, memory *model.Memory) error {
	if err := checkVector(memory.Embedding, f.dims); err != nil {
		return err
	}

	if _, err := f.client.Collection(f.collection).Doc(string(memory.ID)).Set(ctx, memory); err != nil {
		return goerr.Wrap(err, "failed to put memory",
			goerr.V("id", memory.ID),
			goerr.V("collection", f.collection))
	}
	return nil
}

// SearchMemories runs a cosine nearest-neighbor query. Firestore reports
// cosine distance (1 - similarity), so the score is 2 - distance.
func (f *Firestore) SearchMemories(ctx context.Context, vector []float32, limit int) ([]*model.ScoredMemory, error) {
	if err := checkVector(vector, f.dims); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	if limit > maxFindNearestLimit {
		limit = maxFindNearestLimit
	}

	query := f.client.Collection(f.collection).FindNearest("Embedding",
		firestore.Vector32(vector),
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField},
	)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var results []*model.ScoredMemory
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search memories", goerr.V("collection", f.collection))
		}

		var memory model.Memory
		if err := doc.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("id", doc.Ref.ID))
		}

		distance, ok := doc.Data()[distanceField].(float64)
		if !ok {
			return nil, goerr.New("distance field missing in result", goerr.V("id", doc.Ref.ID))
		}

		results = append(results, &model.ScoredMemory{
			Memory: &memory,
			Score:  (1 - distance) + scoreOffset,
		})
	}

	return results, nil
}

func (f *Firestore) PutHistory(ctx context.Context, history *model.History) error {
	if _, err := f.client.Collection(historyCollection).Doc(string(history.ID)).Set(ctx, history); err != nil {
		return goerr.Wrap(err, "failed to put history", goerr.V("id", history.ID))
	}
	return nil
}

func (f *Firestore) GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error) {
	doc, err := f.client.Collection(historyCollection).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, goerr.Wrap(interfaces.ErrHistoryNotFound, "no such history", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history", goerr.V("id", id))
	}

	var history model.History
	if err := doc.DataTo(&history); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history", goerr.V("id", id))
	}
	return &history, nil
}

func (f *Firestore) ListHistory(ctx context.Context, offset, limit int) ([]*model.History, error) {
	query := f.client.Collection(historyCollection).OrderBy("UpdatedAt", firestore.Desc).Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var histories []*model.History
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list histories")
		}

		var history model.History
		if err := doc.DataTo(&history); err != nil {
			return nil, goerr.Wrap(err, "failed to decode history", goerr.V("id", doc.Ref.ID))
		}
		histories = append(histories, &history)
	}

	return histories, nil
}
