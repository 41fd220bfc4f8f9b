package chunkstore

import (
	"errors"
	"sync"

	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
)

// ErrStoreCorrupted signals that a book still exceeds its bound after
// eviction ran. That means the bookkeeping is broken, not that the caller did
// anything wrong, so it is logged at error level and surfaced.
var ErrStoreCorrupted = errors.New("chunk store bound exceeded after eviction")

// DefaultMaxChunksPerBook bounds how many chunks a single book may hold.
const DefaultMaxChunksPerBook = 1200

// EvictListener is notified with the IDs of chunks removed from the store,
// whether by FIFO eviction or by book removal.
type EvictListener func(chunkIds []uuid.UUID)

// Store holds ingested chunks per book, FIFO-bounded per book.
//
// Locking is per book: ingestion into book A never blocks retrieval from
// book B. The outer mutex only guards the book map itself.
type Store struct {
	mu         sync.Mutex
	books      map[uuid.UUID]*bookShelf
	maxPerBook int
	listeners  []EvictListener
	logger     logger.ILogger
}

// bookShelf is the per-book ordered structure. Chunks live in ingestion
// order in a slice with a moving head, so FIFO eviction is O(1) amortized.
type bookShelf struct {
	mu     sync.RWMutex
	chunks []store.Chunk
	head   int
}

func (b *bookShelf) live() []store.Chunk {
	return b.chunks[b.head:]
}

func NewStore(maxPerBook int, log logger.ILogger) *Store {
	if maxPerBook <= 0 {
		maxPerBook = DefaultMaxChunksPerBook
	}
	return &Store{
		books:      make(map[uuid.UUID]*bookShelf),
		maxPerBook: maxPerBook,
		logger:     log,
	}
}

// OnEvict registers a listener for evicted chunk IDs. Listeners are called
// outside the shelf lock. Registration is not safe after first use.
func (s *Store) OnEvict(fn EvictListener) {
	s.listeners = append(s.listeners, fn)
}

// shelf returns the shelf for a book, creating it lazily. The store has no
// foreign-key dependency on the course/book service.
func (s *Store) shelf(bookId uuid.UUID) *bookShelf {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookId]
	if !ok {
		b = &bookShelf{}
		s.books[bookId] = b
	}
	return b
}

// Put inserts a chunk, evicting the oldest chunks of the same book first
// when the bound is exceeded. Eviction is FIFO by ingestion order,
// independent of relevance, so behavior stays predictable across ranking
// changes.
func (s *Store) Put(chunk store.Chunk) error {
	b := s.shelf(chunk.BookId)

	var evicted []uuid.UUID
	b.mu.Lock()
	b.chunks = append(b.chunks, chunk)
	for len(b.live()) > s.maxPerBook {
		evicted = append(evicted, b.chunks[b.head].Id)
		b.chunks[b.head] = store.Chunk{}
		b.head++
	}
	// Compact once the dead prefix dominates, to keep memory bounded.
	if b.head > len(b.chunks)/2 {
		b.chunks = append([]store.Chunk(nil), b.live()...)
		b.head = 0
	}
	corrupted := len(b.live()) > s.maxPerBook
	b.mu.Unlock()

	if len(evicted) > 0 {
		s.notify(evicted)
	}
	if corrupted {
		s.logger.Error("chunkstore", "book exceeds bound after eviction", map[string]interface{}{
			"book_id": chunk.BookId.String(),
			"bound":   s.maxPerBook,
		})
		return ErrStoreCorrupted
	}
	return nil
}

// GetAll returns a snapshot of a book's chunks in ingestion order. The copy
// keeps callers restartable and free of the shelf lock while ranking.
func (s *Store) GetAll(bookId uuid.UUID) []store.Chunk {
	b := s.shelf(bookId)
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]store.Chunk, len(b.live()))
	copy(out, b.live())
	return out
}

// Count returns the number of live chunks for a book.
func (s *Store) Count(bookId uuid.UUID) int {
	b := s.shelf(bookId)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.live())
}

// RemoveBook clears all chunks for a book. Removing an empty or unknown book
// is a no-op, not an error.
func (s *Store) RemoveBook(bookId uuid.UUID) {
	b := s.shelf(bookId)

	b.mu.Lock()
	removed := make([]uuid.UUID, 0, len(b.live()))
	for _, c := range b.live() {
		removed = append(removed, c.Id)
	}
	b.chunks = nil
	b.head = 0
	b.mu.Unlock()

	if len(removed) > 0 {
		s.notify(removed)
	}
}

func (s *Store) notify(ids []uuid.UUID) {
	for _, fn := range s.listeners {
		fn(ids)
	}
}
