package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChunkRecord is the durable form of an ingested chunk. The in-memory chunk
// store is the serving layer; these rows exist so a restart can warm-load it
// instead of starting empty.
type ChunkRecord struct {
	Id         uuid.UUID
	BookId     uuid.UUID
	DocumentId uuid.UUID
	Text       string
	Position   int
	Embedding  []float32
	CreatedAt  time.Time
}

// DocumentRecord tracks one ingested document per book, with free-form
// metadata from the upload layer.
type DocumentRecord struct {
	Id         uuid.UUID
	BookId     uuid.UUID
	ChunkCount int
	Meta       map[string]interface{}
	CreatedAt  time.Time
}
