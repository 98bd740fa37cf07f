package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoProvider is returned when a request reaches a router with nothing registered.
var ErrNoProvider = errors.New("no AI provider registered")

// Router tries registered providers in registration order until one answers.
type Router struct {
	providers map[string]Provider
	fallback  []string // ordered fallback chain
	mu        sync.RWMutex
}

// NewRouter creates a new AI router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the end of the fallback chain.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; !exists {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Complete routes a request to the first provider that answers.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return CompletionResponse{}, ErrNoProvider
	}

	var lastErr error
	for _, name := range r.fallback {
		provider := r.providers[name]

		resp, err := provider.Complete(ctx, req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", name,
				"task", req.Task.String(),
				"error", err,
			)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		slog.Debug("AI request completed",
			"provider", name,
			"task", req.Task.String(),
			"model", resp.Model,
			"structured", resp.Structured,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	return CompletionResponse{}, fmt.Errorf("all AI providers failed: %w", lastErr)
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// HealthCheck succeeds when any registered provider is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return ErrNoProvider
	}
	var errs []error
	for _, name := range r.fallback {
		err := r.providers[name].HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}
