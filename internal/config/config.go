package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// LLM / embeddings
	LLMBaseURL         string
	LLMAPIKey          string
	ChatModel          string
	RerankModel        string
	EmbeddingBaseURL   string
	EmbeddingModel     string
	EmbeddingDimension int

	// Persistence
	DBPath string

	// Vector store
	QdrantURL        string
	QdrantCollection string

	// Chunking defaults
	DefaultChunkStrategy string
	ChunkSize            int
	ChunkOverlap         int
	ParagraphMinLength   int
	SlidingWindowSize    int
	SlidingWindowStep    int
	MinChunkLength       int

	// Retrieval defaults
	RetrievalLimit      int
	TopK                int
	NeighborSize        int
	MaxContextLength    int
	RerankEnabled       bool
	RerankThreshold     float64
	SimilarityThreshold float64

	// Generation
	SystemPrompt string
	Temperature  float64

	// Ingestion
	IngestConcurrency int

	// Server
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// defaultSystemPrompt is the assistant persona used when SYSTEM_PROMPT is not set.
const defaultSystemPrompt = "你是一位专业的电商平台商家运营助手，熟悉店铺管理、评价申诉、活动报名等平台规则。" +
	"请根据提供的资料准确回答商家的问题；资料不足时如实说明，不要编造平台规则。"

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory, it is loaded
// automatically; environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few directories looking for a .env next to the project root.
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:        getEnv("LLM_API_KEY", "dummy-key"),
		ChatModel:        getEnv("CHAT_MODEL", "gpt-4o-mini"),
		RerankModel:      getEnv("RERANK_MODEL", ""),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		DBPath: getEnv("DB_PATH", "./data/merchant-assistant.db"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "document_chunks"),

		DefaultChunkStrategy: getEnv("CHUNK_STRATEGY", "fixed_length"),
		ChunkSize:            getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:         getEnvInt("CHUNK_OVERLAP", 160),
		ParagraphMinLength:   getEnvInt("PARAGRAPH_MIN_LENGTH", 200),
		SlidingWindowSize:    getEnvInt("SLIDING_WINDOW_SIZE", 0),
		SlidingWindowStep:    getEnvInt("SLIDING_WINDOW_STEP", 200),
		MinChunkLength:       getEnvInt("MIN_CHUNK_LENGTH", 20),

		RetrievalLimit:      getEnvInt("RETRIEVAL_LIMIT", 6),
		TopK:                getEnvInt("TOP_K", 4),
		NeighborSize:        getEnvInt("NEIGHBOR_SIZE", 1),
		MaxContextLength:    getEnvInt("MAX_CONTEXT_LENGTH", 2500),
		RerankEnabled:       getEnvBool("RERANK_ENABLED", true),
		RerankThreshold:     getEnvFloat("RERANK_THRESHOLD", 0.25),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.4),

		SystemPrompt: getEnv("SYSTEM_PROMPT", defaultSystemPrompt),
		Temperature:  getEnvFloat("CHAT_TEMPERATURE", 0.7),

		IngestConcurrency: getEnvInt("INGEST_CONCURRENCY", 1),

		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	// Reranking defaults to the chat model unless overridden.
	if cfg.RerankModel == "" {
		cfg.RerankModel = cfg.ChatModel
	}

	// Embeddings share the chat endpoint unless a dedicated server is configured.
	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = cfg.LLMBaseURL
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// EMBEDDING_DIMENSION must match the embedding model's output size; the Qdrant
	// collection is created with this dimension and must be recreated if it changes.
	dimStr := getEnv("EMBEDDING_DIMENSION", "")
	if dimStr == "" {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION is required")
	}
	dim, err := strconv.Atoi(dimStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be a valid integer: %w", err)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be greater than 0")
	}
	cfg.EmbeddingDimension = dim

	if cfg.IngestConcurrency < 1 {
		cfg.IngestConcurrency = 1
	}

	// Create the data directory for the sqlite file if needed.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable. Unset, malformed or
// non-positive values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getEnvFloat parses a float environment variable. Unset, malformed,
// non-finite or negative values fall back to the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || f != f {
		return defaultValue
	}
	return f
}

// getEnvBool parses a boolean environment variable, falling back to the default.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
