package ai

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider creates a provider for OpenRouter, an OpenAI-compatible
// API that identifies the calling app through extra headers.
func NewOpenRouterProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	opts = append([]OpenAIOption{
		WithBaseURL(defaultOpenRouterBaseURL),
		WithProviderName("openrouter"),
		WithDefaultModel("qwen/qwen-2.5-72b-instruct"),
		WithHeader("HTTP-Referer", "https://github.com/p-n-ai/pai-roadmap"),
		WithHeader("X-Title", "P&AI Roadmap"),
	}, opts...)
	return NewOpenAIProvider(apiKey, opts...)
}
