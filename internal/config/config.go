package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by GROUNDWORK_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("GROUNDWORK_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "openai" if not set.
// Valid values: openai, anthropic, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "openai" if not set.
// Valid values: openai, mock
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

func EmbeddingAPIKey() string {
	if EmbeddingProvider() == "mock" {
		return ""
	}
	return OpenAIAPIKey()
}

// RerankProvider returns the second-pass reranker.
// Defaults to "none", which keeps the gate but never calls a model.
// Valid values: http, mock, none
func RerankProvider() string {
	p := os.Getenv("RERANK_PROVIDER")
	if p == "" {
		return "none"
	}
	return p
}

func RerankURL() string {
	return os.Getenv("RERANK_URL")
}

func RerankAPIKey() string {
	return os.Getenv("RERANK_API_KEY")
}

func RerankModel() string {
	return os.Getenv("RERANK_MODEL")
}

// SeedCacheCapacity bounds the per-question seed bundle cache.
// Defaults to 1000 if not set.
func SeedCacheCapacity() int {
	n, err := strconv.Atoi(os.Getenv("SEED_CACHE_CAPACITY"))
	if err != nil || n <= 1 {
		return 1000
	}
	return n
}

// VerifyQuotes turns on write-time checking of justification quotes against
// chunk text. Off by default.
func VerifyQuotes() bool {
	v, err := strconv.ParseBool(os.Getenv("VERIFY_QUOTES"))
	return err == nil && v
}

// ChunkCacheTTL returns how long chunk text stays memoized.
// Defaults to 10m if not set.
func ChunkCacheTTL() time.Duration {
	d, err := time.ParseDuration(os.Getenv("CHUNK_CACHE_TTL"))
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// SeedRefreshInterval returns how often the global seed bundle is reloaded.
// Zero (the default) disables scheduled refreshes.
func SeedRefreshInterval() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SEED_REFRESH_INTERVAL"))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// RetrievalTopK returns how many candidates a retrieval returns.
// Defaults to 8 if not set.
func RetrievalTopK() int {
	k, err := strconv.Atoi(os.Getenv("RETRIEVAL_TOP_K"))
	if err != nil || k <= 0 {
		return 8
	}
	return k
}

// APIKeys returns the accepted static API keys. An empty list disables auth.
func APIKeys() []string {
	var keys []string
	for _, k := range strings.Split(os.Getenv("API_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
