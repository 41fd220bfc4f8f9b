package store

import (
	"github.com/google/uuid"
)

// Chunk is a bounded span of document text held for retrieval.
// Immutable once created; owned exclusively by the chunk store.
type Chunk struct {
	Id         uuid.UUID `json:"id"`
	DocumentId uuid.UUID `json:"document_id"`
	BookId     uuid.UUID `json:"book_id"`
	Text       string    `json:"text"`
	Position   int       `json:"position"`

	// Embedding is nil when the embedding backend was unavailable at ingest time.
	// Vector search skips such chunks; lexical search does not need it.
	Embedding []float32 `json:"-"`
}

// Source tags where a scored chunk came from, so downstream code never has to
// infer it from which fields happen to be set.
type Source string

const (
	SourceVector  Source = "vector"
	SourceLexical Source = "lexical"
)

// ScoredChunk is a transient per-query result. Never persisted.
type ScoredChunk struct {
	Chunk  Chunk   `json:"chunk"`
	Score  float64 `json:"score"`
	Source Source  `json:"source"`
}

// Scope defines the retrieval boundary. All chunk and cache lookups are
// filtered by it. UserId is optional; without it no personal notes are merged.
type Scope struct {
	CourseId uuid.UUID  `json:"course_id"`
	BookId   uuid.UUID  `json:"book_id"`
	UserId   *uuid.UUID `json:"user_id,omitempty"`
}

// RetrievalMode reflects embedding backend health, process-wide.
type RetrievalMode string

const (
	ModeVector  RetrievalMode = "vector"
	ModeLexical RetrievalMode = "lexical"
)

// Warning flags for benign degraded results.
const (
	WarnEmptyQuery   = "empty_query"
	WarnInvalidScope = "invalid_scope"
)

// RetrievalResult is what the generation layer consumes.
type RetrievalResult struct {
	Context    string        `json:"context"`
	ModeUsed   RetrievalMode `json:"mode_used"`
	ChunkCount int           `json:"chunk_count"`
	CacheHit   bool          `json:"cache_hit"`
	Warning    string        `json:"warning,omitempty"`
}
