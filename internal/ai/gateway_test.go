package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-roadmap/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("test response")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("Content = %q, want %q", resp.Content, "test response")
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
}

func TestMockProvider_ResponsesInOrder(t *testing.T) {
	mock := &ai.MockProvider{Response: "fallback", Responses: []string{"one", "two"}}

	for _, want := range []string{"one", "two", "fallback", "fallback"} {
		resp, err := mock.Complete(context.Background(), ai.CompletionRequest{})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if resp.Content != want {
			t.Errorf("Content = %q, want %q", resp.Content, want)
		}
	}
	if mock.Calls() != 4 {
		t.Errorf("Calls() = %d, want 4", mock.Calls())
	}
}

func TestMockProvider_HealthCheck(t *testing.T) {
	if err := ai.NewMockProvider("response").HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	failing := &ai.MockProvider{Err: errors.New("down")}
	if err := failing.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should surface Err")
	}
}

func TestTaskType_String(t *testing.T) {
	tests := []struct {
		task     ai.TaskType
		expected string
	}{
		{ai.TaskCurriculum, "curriculum"},
		{ai.TaskExercises, "exercises"},
		{ai.TaskNotes, "notes"},
		{ai.TaskType(99), "unknown"},
	}
	for _, tt := range tests {
		if tt.task.String() != tt.expected {
			t.Errorf("TaskType.String() = %q, want %q", tt.task.String(), tt.expected)
		}
	}
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	resp := ai.CompletionResponse{InputTokens: 100, OutputTokens: 50}
	if got := resp.TotalTokens(); got != 150 {
		t.Errorf("TotalTokens() = %d, want 150", got)
	}
}
