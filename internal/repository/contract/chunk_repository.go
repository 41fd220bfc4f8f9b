package contract

import (
	"context"

	"ai-tutoring-be/internal/entity"

	"github.com/google/uuid"
)

// ChunkRepository persists ingested chunks so the in-memory store can be
// warm-loaded after a restart.
type ChunkRepository interface {
	// ReplaceDocument transactionally swaps a document's chunks: old rows for
	// the document are deleted and the new batch inserted, so re-ingesting a
	// document never leaves a mixed state.
	ReplaceDocument(ctx context.Context, documentId uuid.UUID, chunks []*entity.ChunkRecord) error

	DeleteByBookId(ctx context.Context, bookId uuid.UUID) error

	// FindAllOrdered returns every chunk in ingestion order (creation time,
	// then position within the document).
	FindAllOrdered(ctx context.Context) ([]*entity.ChunkRecord, error)

	FindByBookId(ctx context.Context, bookId uuid.UUID) ([]*entity.ChunkRecord, error)
}

// DocumentRepository tracks ingested documents and their metadata.
type DocumentRepository interface {
	Upsert(ctx context.Context, doc *entity.DocumentRecord) error
	DeleteByBookId(ctx context.Context, bookId uuid.UUID) error
}
