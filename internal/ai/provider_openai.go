package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultDeepSeekBaseURL = "https://api.deepseek.com"
	defaultOpenAIModel     = "gpt-4o-mini"
)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible APIs
// (DeepSeek, OpenRouter, Ollama, Groq, etc.) via a configurable base URL.
type OpenAIProvider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	name         string
	defaultModel string
	headers      map[string]string
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithBaseURL sets the base URL for the OpenAI-compatible API.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.client = client
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.defaultModel = model
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if p.headers == nil {
			p.headers = make(map[string]string)
		}
		p.headers[key] = value
	}
}

// WithProviderName sets the provider name (for multi-instance use, e.g. "deepseek").
func WithProviderName(name string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.name = name
	}
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:       apiKey,
		baseURL:      defaultOpenAIBaseURL,
		client:       http.DefaultClient,
		name:         "openai",
		defaultModel: defaultOpenAIModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDeepSeekProvider creates a provider for the DeepSeek API (OpenAI-compatible).
func NewDeepSeekProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	opts = append([]OpenAIOption{
		WithBaseURL(defaultDeepSeekBaseURL),
		WithProviderName("deepseek"),
		WithDefaultModel("deepseek-chat"),
	}, opts...)
	return NewOpenAIProvider(apiKey, opts...)
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return p.name }

// openaiRequest is the request body for the OpenAI chat completions API.
type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

// openaiResponse is the response from the OpenAI chat completions API.
type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// apiError is a non-200 answer from the API.
type apiError struct {
	provider string
	status   int
	body     string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.provider, e.status, e.body)
}

// structuredModeRejected reports whether err is the API refusing response_format.
func structuredModeRejected(err error) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.status != http.StatusBadRequest && apiErr.status != http.StatusUnprocessableEntity {
		return false
	}
	body := strings.ToLower(apiErr.body)
	return strings.Contains(body, "response_format") || strings.Contains(body, "json_object")
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]openaiMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openaiMessage(m)
	}

	oaiReq := openaiRequest{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		oaiReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		oaiReq.Temperature = &temp
	}
	if req.ResponseFormat == FormatJSON {
		oaiReq.ResponseFormat = &openaiResponseFormat{Type: string(FormatJSON)}
	}

	resp, err := p.send(ctx, oaiReq)
	if err != nil && oaiReq.ResponseFormat != nil && structuredModeRejected(err) {
		slog.Warn("structured output rejected, retrying free-form",
			"provider", p.name,
			"model", model,
		)
		oaiReq.ResponseFormat = nil
		resp, err = p.send(ctx, oaiReq)
	}
	return resp, err
}

func (p *OpenAIProvider) send(ctx context.Context, oaiReq openaiRequest) (CompletionResponse, error) {
	body, err := json.Marshal(oaiReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	p.authorize(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, &apiError{provider: p.name, status: resp.StatusCode, body: string(respBody)}
	}

	var oaiResp openaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return CompletionResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(oaiResp.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("no choices in response")
	}

	return CompletionResponse{
		Content:      oaiResp.Choices[0].Message.Content,
		Model:        oaiResp.Model,
		InputTokens:  oaiResp.Usage.PromptTokens,
		OutputTokens: oaiResp.Usage.CompletionTokens,
		Structured:   oaiReq.ResponseFormat != nil,
	}, nil
}

func (p *OpenAIProvider) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	p.authorize(req)

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
