// Package config loads the service's environment configuration into a
// single validated struct. The DeepSeek API key is kept in a memguard
// enclave rather than a plain string field so it never lingers in a heap
// dump or an accidental log line.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/awnumar/memguard"
)

// Config is the process's full runtime configuration, loaded once at
// startup from environment variables.
type Config struct {
	Port           string
	AllowedOrigins []string

	DeepSeekAPIKey *memguard.Enclave
	DeepSeekModel  string
	DeepSeekURL    string

	LLMTemperature float64
	LLMMaxTokens   int

	DocsRoot     string
	IndexDir     string
	ChunkSize    int
	ChunkOverlap int

	TopK               int
	RelevanceThreshold float64

	CacheMaxSize int
	CacheTTL     time.Duration

	EmbeddingServiceURL string

	LogLevel string

	TracingEnabled bool
}

// Load reads every configuration key from the environment, applies the
// defaults spec.md §6 names, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AllowedOrigins:      splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		DeepSeekModel:       getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		DeepSeekURL:         getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
		DocsRoot:            getEnv("DOCS_ROOT", "./docs"),
		IndexDir:            getEnv("INDEX_DIR", "./data/index"),
		EmbeddingServiceURL: os.Getenv("EMBEDDING_SERVICE_URL"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		TracingEnabled:      getEnvBool("TRACING_ENABLED", true),
	}

	var err error
	if cfg.LLMTemperature, err = getEnvFloat("LLM_TEMPERATURE", 0.3); err != nil {
		return nil, err
	}
	if cfg.LLMMaxTokens, err = getEnvInt("LLM_MAX_TOKENS", 1024); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 512); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.RelevanceThreshold, err = getEnvFloat("RELEVANCE_THRESHOLD", 0.3); err != nil {
		return nil, err
	}
	if cfg.CacheMaxSize, err = getEnvInt("CACHE_MAX_SIZE", 100); err != nil {
		return nil, err
	}
	cacheTTLMs, err := getEnvInt("CACHE_TTL_MS", 3600000)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = time.Duration(cacheTTLMs) * time.Millisecond

	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		cfg.DeepSeekAPIKey = memguard.NewEnclave([]byte(key))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DeepSeekAPIKey == nil {
		return fmt.Errorf("config: DEEPSEEK_API_KEY is required")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("config: TOP_K must be positive, got %d", c.TopK)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: CHUNK_OVERLAP (%d) must be less than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// OpenAPIKey decrypts the enclave for the single call that needs the
// plaintext key (constructing the DeepSeek client) and wipes the buffer
// once fn returns.
func (c *Config) OpenAPIKey(fn func(key string) error) error {
	buf, err := c.DeepSeekAPIKey.Open()
	if err != nil {
		return fmt.Errorf("config: open API key enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(string(buf.Bytes()))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a number, got %q", key, v)
	}
	return f, nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
