package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/pai-roadmap/internal/ai"
	"github.com/p-n-ai/pai-roadmap/internal/docstore"
)

const (
	defaultMaxTokens  = 4096
	clientsRoot       = "clients"
	fallbackNameWords = 6
)

// NotesSource returns study notes for a module title.
type NotesSource interface {
	NotesForTopic(ctx context.Context, topic string) (string, error)
}

// NotesFunc adapts a function to NotesSource.
type NotesFunc func(ctx context.Context, topic string) (string, error)

func (f NotesFunc) NotesForTopic(ctx context.Context, topic string) (string, error) {
	return f(ctx, topic)
}

// EngineConfig holds dependencies for the agent engine.
type EngineConfig struct {
	AIRouter    *ai.Router
	Store       docstore.Store
	Notes       NotesSource      // nil sends empty notes to the exercises agent
	Events      EventLogger      // nil discards events
	Now         func() time.Time // clock for createdAt stamps (default time.Now)
	Temperature float64          // sampling temperature for both agents; zero is used as given
	MaxTokens   int              // completion budget per agent call (default 4096)
}

// Engine orchestrates curriculum creation and lazy exercise generation over
// the document store.
type Engine struct {
	aiRouter    *ai.Router
	docs        docstore.Store
	curricula   *CurriculumStore
	notes       NotesSource
	events      EventLogger
	now         func() time.Time
	temperature float64
	maxTokens   int
}

// NewEngine creates a new agent engine.
func NewEngine(cfg EngineConfig) *Engine {
	docs := cfg.Store
	if docs == nil {
		docs = docstore.NewMemoryStore()
	}
	notes := cfg.Notes
	if notes == nil {
		notes = NotesFunc(func(context.Context, string) (string, error) { return "", nil })
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &Engine{
		aiRouter:    cfg.AIRouter,
		docs:        docs,
		curricula:   NewCurriculumStore(docs),
		notes:       notes,
		events:      events,
		now:         now,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// CreateCurriculum asks the curriculum agent to decompose goal into modules
// and persists the result as a new curriculum for userID. Agent output is
// normalized before an id is allocated, so a malformed answer never reaches
// the store.
func (e *Engine) CreateCurriculum(ctx context.Context, goal, userID string) (*Curriculum, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}

	payload, err := json.Marshal(struct {
		Description string `json:"description"`
		UserID      string `json:"userId"`
	}{goal, userID})
	if err != nil {
		return nil, fmt.Errorf("encode curriculum request: %w", err)
	}

	raw, err := e.completeJSON(ctx, ai.TaskCurriculum, curriculumSystemPrompt, payload)
	if err != nil {
		return nil, err
	}
	draft, err := NormalizeCurriculum(raw)
	if err != nil {
		return nil, err
	}

	id, err := e.AllocateCurriculumID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := draft.Name
	if name == "" {
		name = projectName(goal)
	}
	c := &Curriculum{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Modules:   draft.Modules,
		CreatedAt: e.now().UnixMilli(),
	}
	if err := e.curricula.Save(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("curriculum created",
		"user_id", userID,
		"curriculum_id", id,
		"modules", len(c.Modules),
	)
	e.logEvent(Event{
		UserID:       userID,
		CurriculumID: id,
		EventType:    EventCurriculumCreated,
		Data:         map[string]any{"modules": len(c.Modules)},
	})
	return c, nil
}

// GetExercises returns the exercises of a module, generating and persisting
// them on first access. A populated module is returned as stored without
// calling either oracle. A failed generation leaves the document untouched.
func (e *Engine) GetExercises(ctx context.Context, userID, curriculumID, moduleID string) ([]Exercise, error) {
	if err := validateRef(userID, curriculumID, moduleID); err != nil {
		return nil, err
	}
	c, err := e.curricula.Load(ctx, userID, curriculumID)
	if err != nil {
		return nil, err
	}
	idx := c.findModule(ModuleID(moduleID))
	if idx < 0 {
		return nil, fmt.Errorf("module %s of curriculum %s/%s: %w", moduleID, userID, curriculumID, ErrNotFound)
	}
	module := &c.Modules[idx]

	if len(module.Exercises) > 0 {
		slog.Debug("exercises cache hit",
			"user_id", userID,
			"curriculum_id", curriculumID,
			"module_id", moduleID,
		)
		e.logEvent(Event{
			UserID:       userID,
			CurriculumID: curriculumID,
			ModuleID:     moduleID,
			EventType:    EventExercisesCacheHit,
		})
		return module.Exercises, nil
	}

	notes, err := e.notes.NotesForTopic(ctx, module.Title)
	if err != nil {
		return nil, fmt.Errorf("notes for %q: %w: %w", module.Title, ErrUpstreamUnavailable, err)
	}

	previous := make([]string, 0, idx)
	for _, m := range c.Modules[:idx] {
		previous = append(previous, m.Title)
	}
	payload, err := json.Marshal(struct {
		Module          string   `json:"module"`
		Notes           string   `json:"notes"`
		PreviousModules []string `json:"previousModules"`
	}{module.Title, notes, previous})
	if err != nil {
		return nil, fmt.Errorf("encode exercises request: %w", err)
	}

	raw, err := e.completeJSON(ctx, ai.TaskExercises, exercisesSystemPrompt, payload)
	if err != nil {
		return nil, err
	}
	exercises, err := NormalizeExercises(raw)
	if err != nil {
		return nil, err
	}

	module.Exercises = exercises
	if err := e.curricula.Save(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("exercises generated",
		"user_id", userID,
		"curriculum_id", curriculumID,
		"module_id", moduleID,
		"exercises", len(exercises),
	)
	e.logEvent(Event{
		UserID:       userID,
		CurriculumID: curriculumID,
		ModuleID:     moduleID,
		EventType:    EventExercisesGenerated,
		Data:         map[string]any{"exercises": len(exercises)},
	})
	return exercises, nil
}

// CompleteModule marks a module as completed. Completing a module twice is
// a successful no-op.
func (e *Engine) CompleteModule(ctx context.Context, userID, curriculumID, moduleID string) (Completion, error) {
	if err := validateRef(userID, curriculumID, moduleID); err != nil {
		return Completion{}, err
	}
	c, err := e.curricula.Load(ctx, userID, curriculumID)
	if err != nil {
		return Completion{}, err
	}
	idx := c.findModule(ModuleID(moduleID))
	if idx < 0 {
		return Completion{}, fmt.Errorf("module %s of curriculum %s/%s: %w", moduleID, userID, curriculumID, ErrNotFound)
	}
	module := &c.Modules[idx]
	done := Completion{ModuleID: module.ModuleID, Completed: true}
	if module.Completed {
		return done, nil
	}

	module.Completed = true
	if err := e.curricula.Save(ctx, c); err != nil {
		return Completion{}, err
	}

	e.logEvent(Event{
		UserID:       userID,
		CurriculumID: curriculumID,
		ModuleID:     moduleID,
		EventType:    EventModuleCompleted,
	})
	return done, nil
}

// ListCurricula returns summaries of a user's curricula ordered by id.
func (e *Engine) ListCurricula(ctx context.Context, userID string) ([]Summary, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	all, err := e.curricula.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(all))
	for i := range all {
		out = append(out, all[i].summary())
	}
	return out, nil
}

// GetCurriculumDetails returns a stored curriculum.
func (e *Engine) GetCurriculumDetails(ctx context.Context, userID, curriculumID string) (*Curriculum, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if _, ok := parseIndex(curriculumID); !ok {
		return nil, fmt.Errorf("%w: curriculum id %q is not a non-negative integer", ErrInvalidRequest, curriculumID)
	}
	return e.curricula.Load(ctx, userID, curriculumID)
}

// CreateClient registers an anonymous learner and returns its generated id.
func (e *Engine) CreateClient(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]int64{"createdAt": e.now().UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("encode client: %w", err)
	}
	id, err := e.docs.Post(ctx, clientsRoot, body)
	if err != nil {
		return "", storeError("create client", err)
	}
	slog.Info("client created", "user_id", id)
	return id, nil
}

// completeJSON runs one agent call and returns its JSON object.
func (e *Engine) completeJSON(ctx context.Context, task ai.TaskType, system string, payload []byte) (json.RawMessage, error) {
	op := task.String() + " agent"
	if e.aiRouter == nil {
		return nil, oracleError(op, ai.ErrNoProvider)
	}
	raw, _, err := e.aiRouter.CompleteJSON(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: string(payload)},
		},
		Task:        task,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, oracleError(op, err)
	}
	return raw, nil
}

func (e *Engine) logEvent(event Event) {
	if err := e.events.LogEvent(event); err != nil {
		slog.Warn("failed to log event", "type", event.EventType, "error", err)
	}
}

func validateUserID(userID string) error {
	if err := docstore.ValidKey(userID); err != nil {
		return fmt.Errorf("%w: userId: %w", ErrInvalidRequest, err)
	}
	return nil
}

func validateRef(userID, curriculumID, moduleID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if _, ok := parseIndex(curriculumID); !ok {
		return fmt.Errorf("%w: curriculum id %q is not a non-negative integer", ErrInvalidRequest, curriculumID)
	}
	if _, ok := parseIndex(moduleID); !ok {
		return fmt.Errorf("%w: module id %q is not a non-negative integer", ErrInvalidRequest, moduleID)
	}
	return nil
}

// projectName shortens a goal to a few words for agents that omit a name.
func projectName(goal string) string {
	words := strings.Fields(goal)
	if len(words) > fallbackNameWords {
		words = words[:fallbackNameWords]
	}
	return strings.Join(words, " ")
}
