package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-roadmap/internal/ai"
)

const (
	defaultTopK       = 3
	synthesisMaxToken = 1024
)

const synthesisPrompt = `You write concise study notes that a teacher will use to create theoretical and practical exercises.
Focus on key concepts, steps and pitfalls. Use only the reference passages given; if they do not cover the topic, rely on well-established knowledge and keep it short.`

// Answer is the reply to a free-form notes query.
type Answer struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []Result `json:"sources"`
}

// OracleConfig configures an Oracle.
type OracleConfig struct {
	Library    *Library
	AIRouter   *ai.Router // nil returns retrieved passages verbatim
	TopK       int        // passages per query (default 3)
	Synthesize bool       // condense passages with the AI router
}

// Oracle answers "notes for topic" requests from the library.
type Oracle struct {
	library    *Library
	aiRouter   *ai.Router
	topK       int
	synthesize bool
}

// NewOracle creates a notes oracle.
func NewOracle(cfg OracleConfig) *Oracle {
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Oracle{
		library:    cfg.Library,
		aiRouter:   cfg.AIRouter,
		topK:       topK,
		synthesize: cfg.Synthesize && cfg.AIRouter != nil,
	}
}

// NotesForTopic returns study notes for a module title.
func (o *Oracle) NotesForTopic(ctx context.Context, topic string) (string, error) {
	a, err := o.Query(ctx, topic)
	if err != nil {
		return "", err
	}
	return a.Answer, nil
}

// Query retrieves the passages best matching q and, when synthesis is on,
// condenses them into notes.
func (o *Oracle) Query(ctx context.Context, q string) (Answer, error) {
	q = strings.TrimSpace(q)
	var hits []Result
	if o.library != nil {
		hits = o.library.Index().Search(q, o.topK)
	}
	if hits == nil {
		hits = []Result{}
	}
	passages := joinPassages(hits)

	if !o.synthesize {
		return Answer{Query: q, Answer: passages, Sources: hits}, nil
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Topic: %s\n", q)
	if passages != "" {
		user.WriteString("\nReference passages:\n\n")
		user.WriteString(passages)
	}
	resp, err := o.aiRouter.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: synthesisPrompt},
			{Role: "user", Content: user.String()},
		},
		Task:      ai.TaskNotes,
		MaxTokens: synthesisMaxToken,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("synthesize notes: %w", err)
	}
	return Answer{Query: q, Answer: strings.TrimSpace(resp.Content), Sources: hits}, nil
}

func joinPassages(hits []Result) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		body := strings.TrimSpace(h.Document.Body)
		if body == "" {
			continue
		}
		parts = append(parts, "## "+h.Document.Name+"\n\n"+body)
	}
	return strings.Join(parts, "\n\n")
}
