package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/rag/chunkstore"
	"ai-tutoring-be/pkg/store"
	"ai-tutoring-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns ingestion events into stored chunks: split into
// token windows, embed each window, put into the in-memory store and persist
// for warm restarts. Embedding failure is tolerated per chunk (the chunk is
// stored without a vector and lexical search still covers it); persistence
// failure degrades to memory-only.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	chunks            *chunkstore.Store
	chunkRepo         contract.ChunkRepository
	documentRepo      contract.DocumentRepository
	embeddingProvider embedding.Provider
	windowSize        int
	overlap           int
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunks *chunkstore.Store,
	chunkRepo contract.ChunkRepository,
	documentRepo contract.DocumentRepository,
	embeddingProvider embedding.Provider,
	windowSize int,
	overlap int,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		chunks:            chunks,
		chunkRepo:         chunkRepo,
		documentRepo:      documentRepo,
		embeddingProvider: embeddingProvider,
		windowSize:        windowSize,
		overlap:           overlap,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ingest_consumer", "failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads never become valid, do not retry
		return
	}

	windows := utils.SplitTokenWindows(payload.Text, cs.windowSize, cs.overlap)
	cs.logger.Info("ingest_consumer", "processing document", map[string]interface{}{
		"document_id": payload.DocumentId.String(),
		"book_id":     payload.BookId.String(),
		"chunks":      len(windows),
	})

	embedderUp := cs.embeddingProvider != nil
	records := make([]*entity.ChunkRecord, 0, len(windows))

	for i, window := range windows {
		chunk := store.Chunk{
			Id:         uuid.New(),
			DocumentId: payload.DocumentId,
			BookId:     payload.BookId,
			Text:       window,
			Position:   i,
		}

		if embedderUp {
			vec, err := cs.embeddingProvider.Generate(ctx, window, embedding.TaskRetrievalDocument)
			if err != nil {
				// One failure means the backend is down for the rest of this
				// document too; lexical search still serves these chunks.
				embedderUp = false
				cs.logger.Warn("ingest_consumer", "embedding unavailable, storing chunks without vectors", map[string]interface{}{
					"document_id": payload.DocumentId.String(),
					"error":       err.Error(),
				})
			} else {
				chunk.Embedding = vec
			}
		}

		if err := cs.chunks.Put(chunk); err != nil {
			cs.logger.Error("ingest_consumer", "chunk store rejected chunk", map[string]interface{}{
				"document_id": payload.DocumentId.String(),
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}

		records = append(records, &entity.ChunkRecord{
			Id:         chunk.Id,
			BookId:     chunk.BookId,
			DocumentId: chunk.DocumentId,
			Text:       chunk.Text,
			Position:   chunk.Position,
			Embedding:  chunk.Embedding,
			CreatedAt:  time.Now(),
		})
	}

	cs.persist(ctx, &payload, records)

	cs.logger.Info("ingest_consumer", "document ingested", map[string]interface{}{
		"document_id": payload.DocumentId.String(),
		"chunks":      len(records),
	})
	msg.Ack()
}

func (cs *consumerService) persist(ctx context.Context, payload *dto.IngestDocumentMessage, records []*entity.ChunkRecord) {
	if cs.chunkRepo == nil {
		return
	}

	if err := cs.chunkRepo.ReplaceDocument(ctx, payload.DocumentId, records); err != nil {
		cs.logger.Warn("ingest_consumer", "chunk persistence failed, continuing memory-only", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		return
	}

	if cs.documentRepo == nil {
		return
	}
	doc := &entity.DocumentRecord{
		Id:         payload.DocumentId,
		BookId:     payload.BookId,
		ChunkCount: len(records),
		Meta:       payload.Meta,
		CreatedAt:  time.Now(),
	}
	if err := cs.documentRepo.Upsert(ctx, doc); err != nil {
		cs.logger.Warn("ingest_consumer", "document record upsert failed", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
	}
}
