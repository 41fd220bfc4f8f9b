package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/pkg/events"
	"ai-tutoring-be/pkg/rag/cache"
	"ai-tutoring-be/pkg/rag/mode"
	"ai-tutoring-be/pkg/rag/vector"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultTopK bounds how many chunks one context may hold.
const DefaultTopK = 10

// Searcher ranks a book's chunks against a query. Implemented by the vector
// and lexical indices.
type Searcher interface {
	Search(ctx context.Context, query string, bookId uuid.UUID, k int) ([]store.ScoredChunk, error)
}

// ContextMerger folds shared personal notes into an assembled context.
type ContextMerger interface {
	Merge(ctx context.Context, base string, scope store.Scope) string
}

// EventPublisher pushes retrieval events to the bus. May be nil.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Orchestrator is the single public retrieval entry point: cache lookup,
// mode-aware search with lexical fallback, context assembly, best-effort
// caching and post-cache annotation merge.
type Orchestrator struct {
	vector    Searcher
	lexical   Searcher
	cache     *cache.ContextCache
	merger    ContextMerger
	modeState *mode.State
	events    EventPublisher
	logger    logger.ILogger
	topK      int

	// flights collapses concurrent identical cache misses into one search.
	flights singleflight.Group
}

func NewOrchestrator(
	vectorIdx Searcher,
	lexicalIdx Searcher,
	contextCache *cache.ContextCache,
	merger ContextMerger,
	modeState *mode.State,
	eventPublisher EventPublisher,
	log logger.ILogger,
	topK int,
) *Orchestrator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Orchestrator{
		vector:    vectorIdx,
		lexical:   lexicalIdx,
		cache:     contextCache,
		merger:    merger,
		modeState: modeState,
		events:    eventPublisher,
		logger:    log,
		topK:      topK,
	}
}

// searchOutcome is what one de-duplicated search flight produces.
type searchOutcome struct {
	entry    cache.Entry
	modeUsed store.RetrievalMode
}

// RetrieveContext assembles a bounded, relevant context for the query within
// the scope. It never fails over a degraded embedding backend or cache; the
// only errors it returns come from caller cancellation.
func (o *Orchestrator) RetrieveContext(ctx context.Context, query string, scope store.Scope) (*store.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return &store.RetrievalResult{ModeUsed: o.modeState.Current(), Warning: store.WarnEmptyQuery}, nil
	}
	if scope.BookId == uuid.Nil {
		return &store.RetrievalResult{ModeUsed: o.modeState.Current(), Warning: store.WarnInvalidScope}, nil
	}

	// Keying the lookup by the current mode guarantees a vector-mode entry is
	// never served while the backend is degraded, and vice versa.
	lookupMode := o.modeState.Current()
	key := o.cache.Key(query, scope, lookupMode)
	if entry, hit := o.cache.Get(ctx, key); hit {
		return &store.RetrievalResult{
			Context:    o.merger.Merge(ctx, entry.Context, scope),
			ModeUsed:   lookupMode,
			ChunkCount: entry.ChunkCount,
			CacheHit:   true,
		}, nil
	}

	v, err, _ := o.flights.Do(key, func() (interface{}, error) {
		return o.searchAndCache(ctx, query, scope, lookupMode, key)
	})
	if err != nil {
		return nil, err
	}
	outcome := v.(*searchOutcome)

	return &store.RetrievalResult{
		Context:    o.merger.Merge(ctx, outcome.entry.Context, scope),
		ModeUsed:   outcome.modeUsed,
		ChunkCount: outcome.entry.ChunkCount,
		CacheHit:   false,
	}, nil
}

func (o *Orchestrator) searchAndCache(ctx context.Context, query string, scope store.Scope, lookupMode store.RetrievalMode, lookupKey string) (*searchOutcome, error) {
	results, modeUsed, err := o.search(ctx, query, scope.BookId)
	if err != nil {
		return nil, err
	}

	entry := cache.Entry{
		Context:    assemble(results),
		ChunkCount: len(results),
	}

	// No partial cache writes once the caller has gone away.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	key := lookupKey
	if modeUsed != lookupMode {
		// The mode changed mid-request (degradation or probe recovery); key
		// the entry under the mode that actually produced it.
		key = o.cache.Key(query, scope, modeUsed)
	}
	o.cache.Set(ctx, key, &entry)

	return &searchOutcome{entry: entry, modeUsed: modeUsed}, nil
}

// search runs the vector index when the mode state allows it, falling back
// to the lexical index in-request on embedding failure so even the request
// that discovers the outage gets a context.
func (o *Orchestrator) search(ctx context.Context, query string, bookId uuid.UUID) ([]store.ScoredChunk, store.RetrievalMode, error) {
	if o.modeState.ShouldAttemptVector() {
		results, err := o.vector.Search(ctx, query, bookId, o.topK)
		if err == nil {
			if o.modeState.ReportSuccess() {
				o.publishModeChange(store.ModeVector)
			}
			return results, store.ModeVector, nil
		}
		if !errors.Is(err, vector.ErrEmbeddingUnavailable) {
			// Caller cancellation or another non-backend error: not a health
			// signal, do not touch the mode.
			return nil, store.ModeVector, err
		}
		if o.modeState.ReportFailure() {
			o.publishModeChange(store.ModeLexical)
		}
		o.logger.Warn("retrieval", "vector search unavailable, serving lexical fallback", map[string]interface{}{
			"book_id": bookId.String(),
			"error":   err.Error(),
		})
	}

	results, err := o.lexical.Search(ctx, query, bookId, o.topK)
	if err != nil {
		return nil, store.ModeLexical, err
	}
	return results, store.ModeLexical, nil
}

// assemble concatenates chunk texts in descending score order.
func assemble(results []store.ScoredChunk) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Text
	}
	return strings.Join(parts, "\n\n")
}

func (o *Orchestrator) publishModeChange(newMode store.RetrievalMode) {
	if o.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := o.events.Publish(ctx, events.BaseEvent{
		Type: "RETRIEVAL_MODE_CHANGED",
		Data: map[string]interface{}{
			"mode": string(newMode),
		},
		OccurredAt: time.Now(),
	})
	if err != nil {
		o.logger.Warn("retrieval", "failed to publish mode change event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
