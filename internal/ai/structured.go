package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON means a provider answered, but not with a JSON object.
var ErrInvalidJSON = errors.New("completion is not valid JSON")

// CompleteJSON requests a JSON object from the first available provider.
// Providers that reject structured mode fall back to free-form output; the
// text is then re-parsed here, so the caller always gets a JSON object or an
// error wrapping ErrInvalidJSON.
func (r *Router) CompleteJSON(ctx context.Context, req CompletionRequest) (json.RawMessage, CompletionResponse, error) {
	req.ResponseFormat = FormatJSON
	resp, err := r.Complete(ctx, req)
	if err != nil {
		return nil, CompletionResponse{}, err
	}

	raw, err := ExtractJSON(resp.Content)
	if err != nil {
		return nil, resp, err
	}
	return raw, resp, nil
}

// ExtractJSON pulls a JSON object out of model text. It accepts bare JSON,
// JSON inside a markdown code fence, and JSON surrounded by prose.
func ExtractJSON(content string) (json.RawMessage, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrInvalidJSON)
	}

	if fenced, ok := stripFence(text); ok {
		text = fenced
	}
	if isObject(text) {
		return compact(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start && isObject(text[start:end+1]) {
		return compact(text[start : end+1])
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, truncate(text, 120))
}

func stripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") {
		return "", false
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:] // drop the language tag line
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

func isObject(text string) bool {
	return strings.HasPrefix(text, "{") && json.Valid([]byte(text))
}

func compact(text string) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
