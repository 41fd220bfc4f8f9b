package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// minTokenLen drops noise tokens ("a", "è", single digits).
const minTokenLen = 2

// ChunkSource is the slice of the chunk store the index needs.
type ChunkSource interface {
	GetAll(bookId uuid.UUID) []store.Chunk
}

// termVector is a chunk's term-frequency profile plus its precomputed
// Euclidean norm, so cosine similarity per query is a single map walk.
type termVector struct {
	terms map[string]float64
	norm  float64
}

// Index ranks chunks by cosine similarity of term-frequency vectors. It has
// no external dependency and never fails; it is the guaranteed-available
// floor under the vector index.
//
// Per-chunk term vectors are computed lazily and kept in an in-memory cache
// keyed by chunk ID. The chunk store's eviction hook drops entries when the
// owning chunk goes away.
type Index struct {
	chunks  ChunkSource
	vectors *gocache.Cache
}

func NewIndex(chunks ChunkSource) *Index {
	return &Index{
		chunks:  chunks,
		vectors: gocache.New(gocache.NoExpiration, 0),
	}
}

// Forget drops cached term vectors for the given chunks. Wired to the chunk
// store's eviction hook.
func (ix *Index) Forget(chunkIds []uuid.UUID) {
	for _, id := range chunkIds {
		ix.vectors.Delete(id.String())
	}
}

// Search returns up to k chunks ranked by term-frequency cosine similarity,
// ingestion order on ties. Chunks with zero term overlap are excluded even
// when k is not filled; fewer than k results is expected, never an error.
func (ix *Index) Search(ctx context.Context, query string, bookId uuid.UUID, k int) ([]store.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qv := buildVector(query)
	if qv.norm == 0 {
		return nil, nil
	}

	var scored []store.ScoredChunk
	for _, chunk := range ix.chunks.GetAll(bookId) {
		cv := ix.vectorFor(chunk)
		score := cosine(qv, cv)
		if score <= 0 {
			continue
		}
		scored = append(scored, store.ScoredChunk{
			Chunk:  chunk,
			Score:  score,
			Source: store.SourceLexical,
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

func (ix *Index) vectorFor(chunk store.Chunk) termVector {
	key := chunk.Id.String()
	if v, found := ix.vectors.Get(key); found {
		return v.(termVector)
	}
	v := buildVector(chunk.Text)
	ix.vectors.Set(key, v, gocache.NoExpiration)
	return v
}

func buildVector(text string) termVector {
	terms := make(map[string]float64)
	for _, tok := range Tokenize(text) {
		terms[tok]++
	}
	var sum float64
	for _, f := range terms {
		sum += f * f
	}
	return termVector{terms: terms, norm: math.Sqrt(sum)}
}

func cosine(a, b termVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	// Walk the smaller map.
	small, large := a.terms, b.terms
	if len(large) < len(small) {
		small, large = large, small
	}
	var dot float64
	for term, f := range small {
		dot += f * large[term]
	}
	return dot / (a.norm * b.norm)
}

// Tokenize lowercases, strips punctuation, splits on whitespace and drops
// tokens shorter than two runes.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}
