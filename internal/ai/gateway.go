// Package ai provides a provider-agnostic AI gateway with ordered fallback
// routing and structured (JSON) completions.
package ai

import "context"

// TaskType defines the kind of AI task, used for logging and routing.
type TaskType int

const (
	TaskCurriculum TaskType = iota
	TaskExercises
	TaskNotes
)

func (t TaskType) String() string {
	switch t {
	case TaskCurriculum:
		return "curriculum"
	case TaskExercises:
		return "exercises"
	case TaskNotes:
		return "notes"
	default:
		return "unknown"
	}
}

// ResponseFormat asks the provider for a particular output shape.
type ResponseFormat string

const (
	FormatText ResponseFormat = ""
	FormatJSON ResponseFormat = "json_object"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages       []Message      `json:"messages"`
	Model          string         `json:"model,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Temperature    float64        `json:"temperature,omitempty"`
	ResponseFormat ResponseFormat `json:"response_format,omitempty"`
	Task           TaskType       `json:"task,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	// Structured reports whether the provider honoured FormatJSON.
	Structured bool `json:"structured"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
