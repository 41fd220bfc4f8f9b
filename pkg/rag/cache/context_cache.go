package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
)

// ErrNotFound is the miss sentinel KV implementations return.
var ErrNotFound = errors.New("cache: key not found")

// DefaultTTL bounds how long an assembled context may be reused.
const DefaultTTL = 5 * time.Minute

// KV is the injected key-value backend. It may be absent or unreachable;
// the cache treats every backend error as a miss.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Entry is the cached envelope. It holds the pre-merge context only:
// personal notes are merged after the cache so one user's notes can never
// surface under another user's key.
type Entry struct {
	Context    string `json:"context"`
	ChunkCount int    `json:"chunk_count"`
}

// ContextCache avoids recomputing identical (query, scope, mode) retrievals
// within a TTL window. It is a performance optimization, never a correctness
// dependency: a dead backend degrades to always-miss / skip-set.
type ContextCache struct {
	kv     KV
	ttl    time.Duration
	logger logger.ILogger
}

func NewContextCache(kv KV, ttl time.Duration, log logger.ILogger) *ContextCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ContextCache{
		kv:     kv,
		ttl:    ttl,
		logger: log,
	}
}

// Key hashes the normalized query, the full scope tuple and the retrieval
// mode. Mode is part of the key so a vector-mode context is never served
// once the backend has degraded to lexical, and vice versa. The book ID
// prefix makes per-book invalidation a prefix delete.
func (c *ContextCache) Key(query string, scope store.Scope, mode store.RetrievalMode) string {
	userPart := ""
	if scope.UserId != nil {
		userPart = scope.UserId.String()
	}
	h := sha256.Sum256([]byte(strings.Join([]string{
		NormalizeQuery(query),
		scope.CourseId.String(),
		scope.BookId.String(),
		userPart,
		string(mode),
	}, "|")))
	return fmt.Sprintf("ctx:%s:%x", scope.BookId, h[:16])
}

// Get returns the cached entry for key, or a miss. Backend errors are misses.
func (c *ContextCache) Get(ctx context.Context, key string) (*Entry, bool) {
	if c.kv == nil {
		return nil, false
	}
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("context_cache", "cache get failed, treating as miss", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("context_cache", "corrupt cache entry, treating as miss", map[string]interface{}{
			"key": key,
		})
		return nil, false
	}
	return &entry, true
}

// Set stores an entry best-effort. Failures are logged and swallowed.
func (c *ContextCache) Set(ctx context.Context, key string, entry *Entry) {
	if c.kv == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, key, string(raw), c.ttl); err != nil {
		c.logger.Warn("context_cache", "cache set failed, skipping", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// InvalidateBook drops every cached context for a book by key prefix, without
// enumerating individual keys.
func (c *ContextCache) InvalidateBook(ctx context.Context, bookId uuid.UUID) {
	if c.kv == nil {
		return
	}
	prefix := fmt.Sprintf("ctx:%s:", bookId)
	if err := c.kv.DeleteByPrefix(ctx, prefix); err != nil {
		c.logger.Warn("context_cache", "cache invalidation failed", map[string]interface{}{
			"book_id": bookId.String(),
			"error":   err.Error(),
		})
	}
}

// NormalizeQuery lowercases and collapses whitespace so trivially different
// spellings of the same query share a cache entry.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
