package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
)

// ErrEmbeddingUnavailable is returned when the embedding backend cannot be
// reached, is misconfigured, or times out. The orchestrator recovers from it
// by switching to lexical mode; it is never surfaced to the caller.
var ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

// DefaultEmbedTimeout caps how long a single query embedding may take.
const DefaultEmbedTimeout = 4 * time.Second

// ChunkSource is the slice of the chunk store the index needs.
type ChunkSource interface {
	GetAll(bookId uuid.UUID) []store.Chunk
}

// Index ranks a book's chunks by cosine similarity between the embedded
// query and the chunk embeddings produced at ingest time.
type Index struct {
	provider embedding.Provider
	chunks   ChunkSource
	timeout  time.Duration
}

func NewIndex(provider embedding.Provider, chunks ChunkSource, timeout time.Duration) *Index {
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	return &Index{
		provider: provider,
		chunks:   chunks,
		timeout:  timeout,
	}
}

// Search returns up to k chunks tagged SourceVector, descending by cosine
// similarity with ingestion order on ties. Chunks ingested without an
// embedding are skipped. Fails with ErrEmbeddingUnavailable when the query
// cannot be embedded.
func (ix *Index) Search(ctx context.Context, query string, bookId uuid.UUID, k int) ([]store.ScoredChunk, error) {
	if ix.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrEmbeddingUnavailable)
	}

	embedCtx, cancel := context.WithTimeout(ctx, ix.timeout)
	defer cancel()

	queryVec, err := ix.provider.Generate(embedCtx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		// Caller cancellation is not a backend failure; report it as-is so
		// the orchestrator does not flip the global mode over it.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("%w: provider returned empty vector", ErrEmbeddingUnavailable)
	}

	var scored []store.ScoredChunk
	for _, chunk := range ix.chunks.GetAll(bookId) {
		if len(chunk.Embedding) == 0 {
			continue
		}
		scored = append(scored, store.ScoredChunk{
			Chunk:  chunk,
			Score:  cosineSimilarity(queryVec, chunk.Embedding),
			Source: store.SourceVector,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// cosineSimilarity over two vectors. Both sides are unit-normalized by the
// providers, so this is dominated by the dot product; the norm terms guard
// against a stray unnormalized vector.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
