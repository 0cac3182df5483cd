// Package repository implements interfaces.MemoryStore and
// interfaces.HistoryRepository on Firestore, chromem-go and Qdrant.
package repository

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/interfaces"
)

const (
	// DefaultCollection is the collection (index) that holds memories
	DefaultCollection = "chatbot_info"

	// scoreOffset shifts cosine similarity into [0, 2]
	scoreOffset = 1.0
)

// checkVector rejects vectors of the wrong length and all-zero vectors.
// A zero vector would be scored NaN on every later search.
func checkVector(vector []float32, dims int) error {
	if len(vector) != dims {
		return goerr.Wrap(interfaces.ErrDimensionMismatch, "vector length differs from store dimension",
			goerr.V("expected", dims),
			goerr.V("actual", len(vector)))
	}
	for _, v := range vector {
		if v != 0 {
			return nil
		}
	}
	return goerr.Wrap(interfaces.ErrZeroVector, "vector has zero norm", goerr.V("dims", dims))
}
