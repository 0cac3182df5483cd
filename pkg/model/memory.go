package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Memory represents a verified fact persisted with its embedding
type Memory struct {
	ID          MemoryID
	Topic       string
	Information string
	Embedding   firestore.Vector32
	CreatedAt   time.Time
}

// ScoredMemory is a search hit. Score is cosine similarity shifted by +1.0
type ScoredMemory struct {
	Memory *Memory
	Score  float64
}

func (id MemoryID) String() string {
	return string(id)
}
