package bootstrap

import (
	"context"
	"log"

	"ai-tutoring-be/internal/config"
	"ai-tutoring-be/internal/controller"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/implementation"
	"ai-tutoring-be/internal/service"
	"ai-tutoring-be/pkg/embedding"
	pktNats "ai-tutoring-be/pkg/nats"
	"ai-tutoring-be/pkg/rag"
	"ai-tutoring-be/pkg/rag/annotate"
	"ai-tutoring-be/pkg/rag/cache"
	"ai-tutoring-be/pkg/rag/chunkstore"
	"ai-tutoring-be/pkg/rag/lexical"
	"ai-tutoring-be/pkg/rag/mode"
	"ai-tutoring-be/pkg/rag/vector"
	"ai-tutoring-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RetrievalController controller.IRetrievalController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

// NewContainer wires the retrieval engine. db may be nil: the engine then
// runs memory-only (no annotation merge, no warm restart), which is every
// collaborator treated as optional, not an error.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event Bus (in-process ingestion pipeline)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding provider selection. A missing/misconfigured provider is
	// tolerated: the lexical index is the guaranteed floor.
	var embeddingProvider embedding.Provider
	switch cfg.Ai.EmbeddingProvider {
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	case "none":
		log.Printf("[WARN] No embedding provider configured, lexical mode only")
	default:
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	// Redis (context cache backend)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	var kv cache.KV
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Context cache disabled", err)
	} else {
		kv = cache.NewRedisKV(rdb)
	}

	// NATS (retrieval events)
	var eventPublisher rag.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
	}

	// Repositories (optional persistence)
	var chunkRepo contract.ChunkRepository
	var documentRepo contract.DocumentRepository
	var annotationRepo contract.AnnotationRepository
	if db != nil {
		chunkRepo = implementation.NewChunkRepository(db)
		documentRepo = implementation.NewDocumentRepository(db)
		annotationRepo = implementation.NewAnnotationRepository(db)
	}

	// Core retrieval pipeline
	chunkStore := chunkstore.NewStore(cfg.Retrieval.MaxChunksPerBook, sysLogger)
	lexicalIdx := lexical.NewIndex(chunkStore)
	chunkStore.OnEvict(lexicalIdx.Forget)

	vectorIdx := vector.NewIndex(embeddingProvider, chunkStore, cfg.Retrieval.EmbedTimeout)
	modeState := mode.NewState(cfg.Retrieval.CooldownBase, cfg.Retrieval.CooldownMax, sysLogger)
	contextCache := cache.NewContextCache(kv, cfg.Retrieval.CacheTTL, sysLogger)
	merger := annotate.NewMerger(annotationRepo, cfg.Retrieval.NotesCharBudget, sysLogger)

	orchestrator := rag.NewOrchestrator(
		vectorIdx,
		lexicalIdx,
		contextCache,
		merger,
		modeState,
		eventPublisher,
		sysLogger,
		cfg.Retrieval.TopK,
	)

	// Services
	publisherService := service.NewPublisherService(cfg.Retrieval.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Retrieval.IngestTopic,
		chunkStore,
		chunkRepo,
		documentRepo,
		embeddingProvider,
		cfg.Retrieval.ChunkWindowTokens,
		cfg.Retrieval.ChunkOverlapTokens,
		sysLogger,
	)
	retrievalService := service.NewRetrievalService(
		orchestrator,
		publisherService,
		chunkStore,
		contextCache,
		chunkRepo,
		documentRepo,
		eventPublisher,
		sysLogger,
	)

	// Warm-load the in-memory store from persisted chunks.
	if chunkRepo != nil {
		warmLoad(chunkStore, chunkRepo, sysLogger)
	}

	return &Container{
		RetrievalController: controller.NewRetrievalController(retrievalService),
		ConsumerService:     consumerService,
		Logger:              sysLogger,
	}
}

func warmLoad(chunkStore *chunkstore.Store, chunkRepo contract.ChunkRepository, sysLogger logger.ILogger) {
	records, err := chunkRepo.FindAllOrdered(context.Background())
	if err != nil {
		sysLogger.Warn("bootstrap", "warm load failed, starting with empty chunk store", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	loaded := 0
	for _, rec := range records {
		chunk := store.Chunk{
			Id:         rec.Id,
			DocumentId: rec.DocumentId,
			BookId:     rec.BookId,
			Text:       rec.Text,
			Position:   rec.Position,
			Embedding:  rec.Embedding,
		}
		if err := chunkStore.Put(chunk); err != nil {
			sysLogger.Error("bootstrap", "warm load hit store corruption", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		loaded++
	}
	sysLogger.Info("bootstrap", "chunk store warm-loaded", map[string]interface{}{
		"chunks": loaded,
	})
}
