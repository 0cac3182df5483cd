package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

// Turn is one caller-side chat entry
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History represents a persisted conversation owned by the caller
type History struct {
	ID        HistoryID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Turns are kept in object storage, not in Firestore
	Turns []Turn `firestore:"-"`
}

func (id HistoryID) String() string {
	return string(id)
}
