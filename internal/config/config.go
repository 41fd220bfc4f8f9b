package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	GeminiApiKey      string
}

type RetrievalConfig struct {
	MaxChunksPerBook   int
	ChunkWindowTokens  int
	ChunkOverlapTokens int
	TopK               int
	CacheTTL           time.Duration
	EmbedTimeout       time.Duration
	CooldownBase       time.Duration
	CooldownMax        time.Duration
	NotesCharBudget    int
	IngestTopic        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GeminiApiKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Retrieval: RetrievalConfig{
			MaxChunksPerBook:   getEnvAsInt("MAX_CHUNKS_PER_BOOK", 1200),
			ChunkWindowTokens:  getEnvAsInt("CHUNK_WINDOW_TOKENS", 800),
			ChunkOverlapTokens: getEnvAsInt("CHUNK_OVERLAP_TOKENS", 100),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 10),
			CacheTTL:           getEnvAsDuration("CONTEXT_CACHE_TTL", 5*time.Minute),
			EmbedTimeout:       getEnvAsDuration("EMBED_TIMEOUT", 4*time.Second),
			CooldownBase:       getEnvAsDuration("EMBED_COOLDOWN_BASE", 30*time.Second),
			CooldownMax:        getEnvAsDuration("EMBED_COOLDOWN_MAX", 10*time.Minute),
			NotesCharBudget:    getEnvAsInt("NOTES_CHAR_BUDGET", 2000),
			IngestTopic:        getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
