package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-roadmap/internal/agent"
	"github.com/p-n-ai/pai-roadmap/internal/ai"
	"github.com/p-n-ai/pai-roadmap/internal/docstore"
	"github.com/p-n-ai/pai-roadmap/internal/httpapi"
	"github.com/p-n-ai/pai-roadmap/internal/notes"
	"github.com/p-n-ai/pai-roadmap/internal/platform/cache"
	"github.com/p-n-ai/pai-roadmap/internal/platform/config"
	"github.com/p-n-ai/pai-roadmap/internal/platform/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	go func() {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := a.router.HealthCheck(checkCtx); err != nil {
			slog.Warn("no AI provider reachable at startup", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 180 * time.Second, // exercise generation waits on the model
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// app holds the wired service and everything that must be closed on exit.
type app struct {
	handler http.Handler
	router  *ai.Router
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var db *database.DB
	if cfg.NeedsDatabase() {
		var err error
		db, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	store, err := openStore(ctx, cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	})

	var events agent.EventLogger = agent.NopEventLogger{}
	if cfg.Events.Enabled {
		events = agent.NewPostgresEventLogger(db.Pool)
	}

	router := newRouter(cfg.AI)

	library, err := notes.NewLibrary(cfg.Notes.Path)
	if err != nil {
		// Exercises are generated without notes until a rebuild succeeds.
		slog.Warn("notes library unavailable, starting empty", "path", cfg.Notes.Path, "error", err)
		library = notes.NewEmptyLibrary(cfg.Notes.Path)
	}
	oracle := notes.NewOracle(notes.OracleConfig{
		Library:    library,
		AIRouter:   router,
		TopK:       cfg.Notes.TopK,
		Synthesize: cfg.Notes.Synthesize,
	})

	engine := agent.NewEngine(agent.EngineConfig{
		AIRouter:    router,
		Store:       store,
		Notes:       oracle,
		Events:      events,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
	})

	a.router = router
	a.handler = httpapi.New(httpapi.Config{
		Curricula:      engine,
		Notes:          oracle,
		Rebuilder:      library,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Ready:          store.HealthCheck,
	})
	return a, nil
}

// newLogger builds the process logger from LEARN_LOG_LEVEL and LEARN_LOG_FORMAT.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// newRouter registers every configured provider; registration order is the
// fallback order.
func newRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()
	if cfg.OpenAI.APIKey != "" {
		opts := []ai.OpenAIOption{ai.WithDefaultModel(cfg.OpenAI.Model)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey, ai.WithDefaultModel(cfg.DeepSeek.Model)))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey, ai.WithDefaultModel(cfg.OpenRouter.Model)))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL, ai.WithDefaultModel(cfg.Ollama.Model)))
	}
	return router
}

// openStore connects the configured document store backend.
func openStore(ctx context.Context, cfg *config.Config, db *database.DB) (docstore.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		slog.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), nil
	case config.BackendFirebase:
		store, err := docstore.NewFirebaseStore(cfg.Store.FirebaseURL, cfg.Store.FirebaseAuth)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSQLite:
		store, err := docstore.NewSQLiteStore(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres backend requires a database connection")
		}
		store, err := docstore.NewPostgresStore(db.Pool)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRedis:
		c, err := cache.New(ctx, cfg.Cache.URL, cache.WithPoolSize(cfg.Cache.PoolSize))
		if err != nil {
			return nil, err
		}
		store, err := docstore.NewRedisStore(c.Client, cfg.Store.RedisPrefix)
		if err != nil {
			c.Close()
			return nil, err
		}
		return redisBackend{RedisStore: store, cache: c}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// redisBackend closes the client it owns together with the store.
type redisBackend struct {
	*docstore.RedisStore
	cache *cache.Cache
}

func (b redisBackend) Close() error {
	return b.cache.Close()
}
