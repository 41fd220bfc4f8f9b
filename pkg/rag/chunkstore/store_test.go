package chunkstore

import (
	"fmt"
	"testing"

	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChunk(bookId uuid.UUID, position int) store.Chunk {
	return store.Chunk{
		Id:         uuid.New(),
		DocumentId: uuid.New(),
		BookId:     bookId,
		Text:       fmt.Sprintf("chunk %d", position),
		Position:   position,
	}
}

func TestPutAndGetAllPreservesIngestionOrder(t *testing.T) {
	s := NewStore(10, logger.NewNopLogger())
	bookId := uuid.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(newChunk(bookId, i)))
	}

	got := s.GetAll(bookId)
	require.Len(t, got, 5)
	for i, c := range got {
		assert.Equal(t, i, c.Position)
	}
}

func TestFifoEvictionKeepsNewestWithinBound(t *testing.T) {
	// Ingest 1500 into a book bounded at 1200: the oldest 300 go, the
	// newest 1200 stay in order.
	s := NewStore(DefaultMaxChunksPerBook, logger.NewNopLogger())
	bookId := uuid.New()

	for i := 0; i < 1500; i++ {
		require.NoError(t, s.Put(newChunk(bookId, i)))
	}

	got := s.GetAll(bookId)
	require.Len(t, got, DefaultMaxChunksPerBook)
	assert.Equal(t, 300, got[0].Position)
	assert.Equal(t, 1499, got[len(got)-1].Position)
}

func TestBoundIsPerBook(t *testing.T) {
	s := NewStore(3, logger.NewNopLogger())
	bookA := uuid.New()
	bookB := uuid.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(newChunk(bookA, i)))
	}
	require.NoError(t, s.Put(newChunk(bookB, 0)))

	assert.Equal(t, 3, s.Count(bookA))
	assert.Equal(t, 1, s.Count(bookB))
}

func TestEvictionNotifiesListeners(t *testing.T) {
	s := NewStore(2, logger.NewNopLogger())
	bookId := uuid.New()

	var evicted []uuid.UUID
	s.OnEvict(func(ids []uuid.UUID) {
		evicted = append(evicted, ids...)
	})

	first := newChunk(bookId, 0)
	require.NoError(t, s.Put(first))
	require.NoError(t, s.Put(newChunk(bookId, 1)))
	require.NoError(t, s.Put(newChunk(bookId, 2)))

	require.Len(t, evicted, 1)
	assert.Equal(t, first.Id, evicted[0])
}

func TestGetAllReturnsSnapshot(t *testing.T) {
	s := NewStore(10, logger.NewNopLogger())
	bookId := uuid.New()
	require.NoError(t, s.Put(newChunk(bookId, 0)))

	snapshot := s.GetAll(bookId)
	require.NoError(t, s.Put(newChunk(bookId, 1)))

	assert.Len(t, snapshot, 1)
	assert.Len(t, s.GetAll(bookId), 2)
}

func TestRemoveBookIsIdempotent(t *testing.T) {
	s := NewStore(10, logger.NewNopLogger())
	bookId := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(newChunk(bookId, i)))
	}

	var notified int
	s.OnEvict(func(ids []uuid.UUID) {
		notified += len(ids)
	})

	s.RemoveBook(bookId)
	assert.Equal(t, 0, s.Count(bookId))
	assert.Equal(t, 3, notified)

	// Removing again, and removing an unknown book, are no-ops.
	s.RemoveBook(bookId)
	s.RemoveBook(uuid.New())
	assert.Equal(t, 3, notified)
}

func TestGetAllUnknownBookIsEmpty(t *testing.T) {
	s := NewStore(10, logger.NewNopLogger())
	assert.Empty(t, s.GetAll(uuid.New()))
}
