package service

import (
	"context"
	"errors"
	"time"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/pkg/events"
	"ai-tutoring-be/pkg/rag"
	"ai-tutoring-be/pkg/rag/cache"
	"ai-tutoring-be/pkg/rag/chunkstore"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
)

var ErrEmptyDocument = errors.New("document text is empty")

type IRetrievalService interface {
	RetrieveContext(ctx context.Context, req *dto.RetrieveContextRequest) (*dto.RetrieveContextResponse, error)
	Ingest(ctx context.Context, req *dto.IngestRequest) error
	InvalidateBook(ctx context.Context, bookId uuid.UUID) error
}

type retrievalService struct {
	orchestrator *rag.Orchestrator
	publisher    IPublisherService
	chunks       *chunkstore.Store
	contextCache *cache.ContextCache
	chunkRepo    contract.ChunkRepository
	documentRepo contract.DocumentRepository
	events       rag.EventPublisher
	logger       logger.ILogger
}

func NewRetrievalService(
	orchestrator *rag.Orchestrator,
	publisher IPublisherService,
	chunks *chunkstore.Store,
	contextCache *cache.ContextCache,
	chunkRepo contract.ChunkRepository,
	documentRepo contract.DocumentRepository,
	eventPublisher rag.EventPublisher,
	log logger.ILogger,
) IRetrievalService {
	return &retrievalService{
		orchestrator: orchestrator,
		publisher:    publisher,
		chunks:       chunks,
		contextCache: contextCache,
		chunkRepo:    chunkRepo,
		documentRepo: documentRepo,
		events:       eventPublisher,
		logger:       log,
	}
}

func (s *retrievalService) RetrieveContext(ctx context.Context, req *dto.RetrieveContextRequest) (*dto.RetrieveContextResponse, error) {
	scope := store.Scope{
		CourseId: req.CourseId,
		BookId:   req.BookId,
		UserId:   req.UserId,
	}

	result, err := s.orchestrator.RetrieveContext(ctx, req.Query, scope)
	if err != nil {
		return nil, err
	}

	return &dto.RetrieveContextResponse{
		Context:    result.Context,
		ModeUsed:   string(result.ModeUsed),
		ChunkCount: result.ChunkCount,
		CacheHit:   result.CacheHit,
		Warning:    result.Warning,
	}, nil
}

// Ingest hands the document to the ingestion bus; chunking and embedding
// happen in the consumer so upload requests return fast.
func (s *retrievalService) Ingest(ctx context.Context, req *dto.IngestRequest) error {
	if req.Text == "" {
		return ErrEmptyDocument
	}

	return s.publisher.PublishIngestDocument(&dto.IngestDocumentMessage{
		BookId:     req.BookId,
		DocumentId: req.DocumentId,
		Text:       req.Text,
		Meta:       req.Meta,
	})
}

// InvalidateBook clears every trace of a book: in-memory chunks (the store's
// eviction hook drops lexical term vectors with them), cached contexts by
// key prefix, and persisted rows. Cache and persistence failures are logged
// but do not fail the invalidation; the authoritative in-memory state is
// already gone.
func (s *retrievalService) InvalidateBook(ctx context.Context, bookId uuid.UUID) error {
	s.chunks.RemoveBook(bookId)
	s.contextCache.InvalidateBook(ctx, bookId)

	if s.chunkRepo != nil {
		if err := s.chunkRepo.DeleteByBookId(ctx, bookId); err != nil {
			s.logger.Warn("retrieval_service", "failed to delete persisted chunks", map[string]interface{}{
				"book_id": bookId.String(),
				"error":   err.Error(),
			})
		}
	}
	if s.documentRepo != nil {
		if err := s.documentRepo.DeleteByBookId(ctx, bookId); err != nil {
			s.logger.Warn("retrieval_service", "failed to delete document records", map[string]interface{}{
				"book_id": bookId.String(),
				"error":   err.Error(),
			})
		}
	}

	if s.events != nil {
		err := s.events.Publish(ctx, events.BaseEvent{
			Type: "BOOK_INVALIDATED",
			Data: map[string]interface{}{
				"book_id": bookId.String(),
			},
			OccurredAt: time.Now(),
		})
		if err != nil {
			s.logger.Warn("retrieval_service", "failed to publish invalidation event", map[string]interface{}{
				"book_id": bookId.String(),
				"error":   err.Error(),
			})
		}
	}

	s.logger.Info("retrieval_service", "book invalidated", map[string]interface{}{
		"book_id": bookId.String(),
	})
	return nil
}
