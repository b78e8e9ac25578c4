package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"merchant-assistant/internal/chunking"
	"merchant-assistant/internal/config"
	"merchant-assistant/internal/handlers"
	"merchant-assistant/internal/http"
	"merchant-assistant/internal/ingest"
	"merchant-assistant/internal/llm"
	"merchant-assistant/internal/rag"
	"merchant-assistant/internal/service"
	"merchant-assistant/internal/storage"
	"merchant-assistant/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	conversationRepo := storage.NewConversationRepo(db)
	messageRepo := storage.NewMessageRepo(db)
	documentRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	vectorIndexRepo := storage.NewVectorIndexRepo(db)
	searchLogRepo := storage.NewSearchLogRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingDimension); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingDimension)

	// LLM clients
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ChatModel)

	// Retrieval pipeline
	retriever := rag.NewRetriever(embedder, vectorStore, chunkRepo, documentRepo, searchLogRepo, llmClient, rag.RetrieverConfig{
		Collection:          cfg.QdrantCollection,
		Strategy:            rag.StrategyChunkNeighbors,
		RetrievalLimit:      cfg.RetrievalLimit,
		TopK:                cfg.TopK,
		NeighborSize:        cfg.NeighborSize,
		MaxContextLength:    cfg.MaxContextLength,
		RerankEnabled:       cfg.RerankEnabled,
		RerankModel:         cfg.RerankModel,
		RerankThreshold:     cfg.RerankThreshold,
		SimilarityThreshold: cfg.SimilarityThreshold,
	})
	gate := rag.NewGate(llmClient, cfg.ChatModel)
	slog.Info("Retrieval pipeline initialized", "collection", cfg.QdrantCollection)

	// Conversation service
	conversationService := service.NewConversationService(
		conversationRepo,
		messageRepo,
		gate,
		retriever,
		llmClient,
		service.Options{
			SystemPrompt: cfg.SystemPrompt,
			ChatModel:    cfg.ChatModel,
			Temperature:  cfg.Temperature,
		},
	)

	// Ingestion pipeline, queue and progress fan-out
	registry := chunking.NewRegistry(chunking.Defaults{
		ChunkSize:          cfg.ChunkSize,
		ChunkOverlap:       cfg.ChunkOverlap,
		ParagraphMinLength: cfg.ParagraphMinLength,
		SlidingWindowSize:  cfg.SlidingWindowSize,
		SlidingWindowStep:  cfg.SlidingWindowStep,
	}, cfg.DefaultChunkStrategy)

	pipeline := ingest.NewPipeline(
		documentRepo,
		chunkRepo,
		vectorIndexRepo,
		vectorStore,
		cfg.QdrantCollection,
		embedder,
		registry,
		cfg.MinChunkLength,
		retriever,
	)

	queue := ingest.NewQueue(cfg.IngestConcurrency, logger)
	queue.Start(ctx)
	defer queue.Stop()
	progress := ingest.NewProgressBroker()
	slog.Info("Ingestion queue started", "concurrency", cfg.IngestConcurrency)

	// Create router with dependencies
	deps := &http.Deps{
		Conversations: conversationService,
		Documents:     handlers.NewDocumentsHandler(documentRepo, pipeline, queue, progress),
		Health:        handlers.NewHealthHandler(db, vectorStore, cfg.QdrantCollection),
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{Addr: addr, Handler: router}
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		_ = server.Shutdown(context.Background())
	}()

	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.ChatModel)
	if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
		log.Fatalf("API server failed to start: %v", err)
	}
}
