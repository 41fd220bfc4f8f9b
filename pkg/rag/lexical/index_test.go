package lexical

import (
	"context"
	"testing"

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

func chunkWithText(bookId uuid.UUID, position int, text string) store.Chunk {
	return store.Chunk{
		Id:       uuid.New(),
		BookId:   bookId,
		Text:     text,
		Position: position,
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits",
			text: "Photosynthesis converts Light",
			want: []string{"photosynthesis", "converts", "light"},
		},
		{
			name: "strips punctuation",
			text: "cells, chloroplasts; (energy)!",
			want: []string{"cells", "chloroplasts", "energy"},
		},
		{
			name: "drops single-rune tokens",
			text: "a cell is a unit",
			want: []string{"cell", "is", "unit"},
		},
		{
			name: "keeps numbers",
			text: "chapter 12 covers ATP",
			want: []string{"chapter", "12", "covers", "atp"},
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchRanksByTermOverlap(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{chunks: []store.Chunk{
		chunkWithText(bookId, 0, "photosynthesis requires light and chlorophyll"),
		chunkWithText(bookId, 1, "mitochondria produce energy"),
		chunkWithText(bookId, 2, "light reactions of photosynthesis split water"),
	}}
	ix := NewIndex(src)

	results, err := ix.Search(context.Background(), "photosynthesis light", bookId, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, store.SourceLexical, r.Source)
		assert.Greater(t, r.Score, 0.0)
	}
	// The chunk about mitochondria shares no terms and must not appear.
	for _, r := range results {
		assert.NotEqual(t, 1, r.Chunk.Position)
	}
}

func TestSearchExcludesZeroOverlapEvenWhenKUnfilled(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{chunks: []store.Chunk{
		chunkWithText(bookId, 0, "mitosis and meiosis"),
	}}
	ix := NewIndex(src)

	results, err := ix.Search(context.Background(), "thermodynamics entropy", bookId, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchIsDeterministic(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{chunks: []store.Chunk{
		chunkWithText(bookId, 0, "the cell membrane"),
		chunkWithText(bookId, 1, "the cell wall"),
		chunkWithText(bookId, 2, "the cell nucleus"),
	}}
	ix := NewIndex(src)

	first, err := ix.Search(context.Background(), "cell", bookId, 10)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := ix.Search(context.Background(), "cell", bookId, 10)
		require.NoError(t, err)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Chunk.Id, again[j].Chunk.Id)
		}
	}
}

func TestSearchTieBreaksByIngestionOrder(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{chunks: []store.Chunk{
		chunkWithText(bookId, 0, "osmosis gradient"),
		chunkWithText(bookId, 1, "osmosis gradient"),
		chunkWithText(bookId, 2, "osmosis gradient"),
	}}
	ix := NewIndex(src)

	results, err := ix.Search(context.Background(), "osmosis", bookId, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Chunk.Position)
	}
}

func TestSearchCapsAtK(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{}
	for i := 0; i < 20; i++ {
		src.chunks = append(src.chunks, chunkWithText(bookId, i, "enzyme substrate binding"))
	}
	ix := NewIndex(src)

	results, err := ix.Search(context.Background(), "enzyme", bookId, 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestSearchEmptyQueryAfterTokenization(t *testing.T) {
	bookId := uuid.New()
	src := &staticSource{chunks: []store.Chunk{
		chunkWithText(bookId, 0, "anything"),
	}}
	ix := NewIndex(src)

	results, err := ix.Search(context.Background(), "!!! ???", bookId, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchHonorsCancellation(t *testing.T) {
	ix := NewIndex(&staticSource{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Search(ctx, "query", uuid.New(), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForgetDropsCachedVectors(t *testing.T) {
	bookId := uuid.New()
	c := chunkWithText(bookId, 0, "original text about ribosomes")
	src := &staticSource{chunks: []store.Chunk{c}}
	ix := NewIndex(src)

	results, err := ix.Search(context.Background(), "ribosomes", bookId, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Replace the chunk text under the same ID; without Forget the stale
	// cached vector would still match.
	src.chunks[0].Text = "completely different topic"
	ix.Forget([]uuid.UUID{c.Id})

	results, err = ix.Search(context.Background(), "ribosomes", bookId, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
