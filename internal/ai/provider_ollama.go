package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OllamaProvider implements Provider for self-hosted Ollama through its
// OpenAI-compatible /v1 endpoint, which also understands response_format.
type OllamaProvider struct {
	*OpenAIProvider
	rootURL string
}

// NewOllamaProvider creates a new Ollama provider for the server at baseURL.
func NewOllamaProvider(baseURL string, opts ...OpenAIOption) *OllamaProvider {
	root := strings.TrimRight(baseURL, "/")
	opts = append([]OpenAIOption{
		WithBaseURL(root + "/v1"),
		WithProviderName("ollama"),
		WithDefaultModel("llama3:8b"),
	}, opts...)
	return &OllamaProvider{
		OpenAIProvider: NewOpenAIProvider("", opts...),
		rootURL:        root,
	}
}

// HealthCheck lists local models through the native API.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.rootURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
