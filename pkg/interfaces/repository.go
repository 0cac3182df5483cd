package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
)

var (
	// ErrDimensionMismatch is returned when a vector length differs from the store dimension
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")

	// ErrZeroVector is returned for an all-zero vector, which has no cosine similarity
	ErrZeroVector = goerr.New("zero vector")

	// ErrHistoryNotFound is returned when a history does not exist
	ErrHistoryNotFound = goerr.New("history not found")
)

// MemoryStore persists verified memories and searches them by vector similarity
type MemoryStore interface {
	// PutMemory saves a memory with its embedding
	PutMemory(ctx context.Context, memory *model.Memory) error

	// SearchMemories returns up to limit memories ordered by descending score.
	// Score is cosine similarity plus 1.0.
	SearchMemories(ctx context.Context, vector []float32, limit int) ([]*model.ScoredMemory, error)

	// Dimensions returns the configured vector dimension
	Dimensions() int
}

// HistoryRepository stores conversation history metadata
type HistoryRepository interface {
	// PutHistory saves a conversation history
	PutHistory(ctx context.Context, history *model.History) error

	// GetHistory retrieves a conversation history by ID
	GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error)

	// ListHistory retrieves conversation histories, newest first
	ListHistory(ctx context.Context, offset, limit int) ([]*model.History, error)
}
