package vector

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	chunks []store.Chunk
}

func (s *staticSource) GetAll(bookId uuid.UUID) []store.Chunk {
	var out []store.Chunk
	for _, c := range s.chunks {
		if c.BookId == bookId {
			out = append(out, c)
		}
	}
	return out
}

// fakeProvider returns a fixed vector, or an error when failWith is set.
type fakeProvider struct {
	vec      []float32
	failWith error
	calls    int
}

func (p *fakeProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	p.calls++
	if p.failWith != nil {
		return nil, p.failWith
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.vec, nil
}

func embeddedChunk(bookId uuid.UUID, position int, vec []float32) store.Chunk {
	return store.Chunk{
		Id:        uuid.New(),
		BookId:    bookId,
		Text:      "chunk",
		Position:  position,
		Embedding: vec,
	}
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{chunks: []store.Chunk{
		embeddedChunk(bookId, 0, []float32{0, 1, 0}),
		embeddedChunk(bookId, 1, []float32{1, 0, 0}),
		embeddedChunk(bookId, 2, []float32{0.7, 0.7, 0}),
	}}
	ix := NewIndex(&fakeProvider{vec: []float32{1, 0, 0}}, src, time.Second)

	results, err := ix.Search(context.Background(), "query", bookId, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].Chunk.Position)
	assert.Equal(t, 2, results[1].Chunk.Position)
	assert.Equal(t, 0, results[2].Chunk.Position)
	for _, r := range results {
		assert.Equal(t, store.SourceVector, r.Source)
	}
}

func TestSearchSkipsChunksWithoutEmbedding(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{chunks: []store.Chunk{
		embeddedChunk(bookId, 0, []float32{1, 0, 0}),
		embeddedChunk(bookId, 1, nil),
	}}
	ix := NewIndex(&fakeProvider{vec: []float32{1, 0, 0}}, src, time.Second)

	results, err := ix.Search(context.Background(), "query", bookId, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Chunk.Position)
}

func TestSearchTieBreaksByIngestionOrder(t *testing.T) {
	bookId := uuid.New()
	same := []float32{1, 0, 0}
	src := &staticSource{chunks: []store.Chunk{
		embeddedChunk(bookId, 0, same),
		embeddedChunk(bookId, 1, same),
		embeddedChunk(bookId, 2, same),
	}}
	ix := NewIndex(&fakeProvider{vec: same}, src, time.Second)

	results, err := ix.Search(context.Background(), "query", bookId, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Chunk.Position)
	}
}

func TestSearchCapsAtK(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{}
	for i := 0; i < 15; i++ {
		src.chunks = append(src.chunks, embeddedChunk(bookId, i, []float32{1, 0, 0}))
	}
	ix := NewIndex(&fakeProvider{vec: []float32{1, 0, 0}}, src, time.Second)

	results, err := ix.Search(context.Background(), "query", bookId, 4)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestSearchWithoutProviderIsUnavailable(t *testing.T) {
	ix := NewIndex(nil, &staticSource{}, time.Second)

	_, err := ix.Search(context.Background(), "query", uuid.New(), 10)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestSearchWrapsProviderFailure(t *testing.T) {
	provider := &fakeProvider{failWith: errors.New("connection refused")}
	ix := NewIndex(provider, &staticSource{}, time.Second)

	_, err := ix.Search(context.Background(), "query", uuid.New(), 10)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestSearchEmptyVectorIsUnavailable(t *testing.T) {
	ix := NewIndex(&fakeProvider{vec: nil}, &staticSource{}, time.Second)

	_, err := ix.Search(context.Background(), "query", uuid.New(), 10)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestSearchReportsCallerCancellationAsIs(t *testing.T) {
	// A canceled caller must not look like a backend outage.
	ix := NewIndex(&fakeProvider{vec: []float32{1}}, &staticSource{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Search(ctx, "query", uuid.New(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrEmbeddingUnavailable)
}
