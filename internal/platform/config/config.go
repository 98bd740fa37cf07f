// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix. A .env file in the working directory
// (or at LEARN_ENV_FILE) is read first; real environment variables win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Document store backends.
const (
	BackendMemory   = "memory"
	BackendFirebase = "firebase"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Notes    NotesConfig
	Events   EventsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Host            string
	AllowedOrigins  []string
	ShutdownTimeout int // seconds
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend      string
	FirebaseURL  string
	FirebaseAuth string
	SQLitePath   string
	RedisPrefix  string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings.
type CacheConfig struct {
	URL      string
	PoolSize int
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI      OpenAIConfig
	DeepSeek    DeepSeekConfig
	Ollama      OllamaConfig
	OpenRouter  OpenRouterConfig
	Temperature float64
	MaxTokens   int
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey string
	Model  string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
	Model  string
}

// NotesConfig holds the study notes library settings.
type NotesConfig struct {
	Path       string
	TopK       int
	Synthesize bool
}

// EventsConfig controls analytics event persistence.
type EventsConfig struct {
	Enabled bool // requires LEARN_DATABASE_URL
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	if err := loadDotEnv(envStr("LEARN_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("LEARN_SERVER_PORT", 8080),
			Host:            envStr("LEARN_SERVER_HOST", "0.0.0.0"),
			AllowedOrigins:  envList("LEARN_SERVER_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
			ShutdownTimeout: envInt("LEARN_SERVER_SHUTDOWN_TIMEOUT", 10),
		},
		Store: StoreConfig{
			Backend:      strings.ToLower(envStr("LEARN_STORE_BACKEND", BackendMemory)),
			FirebaseURL:  envStr("LEARN_STORE_FIREBASE_URL", ""),
			FirebaseAuth: envStr("LEARN_STORE_FIREBASE_AUTH", ""),
			SQLitePath:   envStr("LEARN_STORE_SQLITE_PATH", "./data/roadmap.db"),
			RedisPrefix:  envStr("LEARN_STORE_REDIS_PREFIX", "docstore"),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL:      envStr("LEARN_CACHE_URL", "redis://localhost:6379"),
			PoolSize: envInt("LEARN_CACHE_POOL_SIZE", 0),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey:  envStr("LEARN_AI_OPENAI_API_KEY", ""),
				Model:   envStr("LEARN_AI_OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: envStr("LEARN_AI_OPENAI_BASE_URL", ""),
			},
			DeepSeek: DeepSeekConfig{
				APIKey: envStr("LEARN_AI_DEEPSEEK_API_KEY", ""),
				Model:  envStr("LEARN_AI_DEEPSEEK_MODEL", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("LEARN_AI_OLLAMA_ENABLED", false),
				URL:     envStr("LEARN_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("LEARN_AI_OLLAMA_MODEL", ""),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("LEARN_AI_OPENROUTER_API_KEY", ""),
				Model:  envStr("LEARN_AI_OPENROUTER_MODEL", ""),
			},
			Temperature: envFloat("LEARN_AI_TEMPERATURE", 0.2),
			MaxTokens:   envInt("LEARN_AI_MAX_TOKENS", 4096),
		},
		Notes: NotesConfig{
			Path:       envStr("LEARN_NOTES_PATH", "./notes"),
			TopK:       envInt("LEARN_NOTES_TOP_K", 3),
			Synthesize: envBool("LEARN_NOTES_SYNTHESIZE", true),
		},
		Events: EventsConfig{
			Enabled: envBool("LEARN_EVENTS_ENABLED", false),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFirebase:
		if c.Store.FirebaseURL == "" {
			return fmt.Errorf("LEARN_STORE_FIREBASE_URL is required for the firebase backend")
		}
	case BackendRedis:
		if c.Cache.URL == "" {
			return fmt.Errorf("LEARN_CACHE_URL is required for the redis backend")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("LEARN_DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("LEARN_STORE_SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("LEARN_STORE_BACKEND must be one of memory, firebase, redis, postgres, sqlite, got %q", c.Store.Backend)
	}

	if c.Events.Enabled && c.Database.URL == "" {
		return fmt.Errorf("LEARN_EVENTS_ENABLED requires LEARN_DATABASE_URL")
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("LEARN_AI_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

// NeedsDatabase reports whether a PostgreSQL pool must be opened.
func (c *Config) NeedsDatabase() bool {
	return c.Store.Backend == BackendPostgres || c.Events.Enabled
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
