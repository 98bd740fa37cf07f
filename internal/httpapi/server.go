// Package httpapi exposes the curriculum engine and notes oracle over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/p-n-ai/pai-roadmap/internal/agent"
	"github.com/p-n-ai/pai-roadmap/internal/notes"
)

const maxBodyBytes = 1 << 20

// Curricula is the engine surface served by the API.
type Curricula interface {
	CreateClient(ctx context.Context) (string, error)
	CreateCurriculum(ctx context.Context, goal, userID string) (*agent.Curriculum, error)
	ListCurricula(ctx context.Context, userID string) ([]agent.Summary, error)
	GetCurriculumDetails(ctx context.Context, userID, curriculumID string) (*agent.Curriculum, error)
	GetExercises(ctx context.Context, userID, curriculumID, moduleID string) ([]agent.Exercise, error)
	CompleteModule(ctx context.Context, userID, curriculumID, moduleID string) (agent.Completion, error)
}

// NotesQuerier answers free-form notes queries.
type NotesQuerier interface {
	Query(ctx context.Context, q string) (notes.Answer, error)
}

// Rebuilder reloads the notes index.
type Rebuilder interface {
	Rebuild() (int, error)
}

// Config holds the handler dependencies.
type Config struct {
	Curricula      Curricula
	Notes          NotesQuerier // optional
	Rebuilder      Rebuilder    // optional
	AllowedOrigins []string
	// Ready reports whether backing services are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

type server struct {
	curricula Curricula
	notes     NotesQuerier
	rebuilder Rebuilder
	ready     func(ctx context.Context) error
}

// New returns the API handler with CORS and request logging applied.
func New(cfg Config) http.Handler {
	s := &server{
		curricula: cfg.Curricula,
		notes:     cfg.Notes,
		rebuilder: cfg.Rebuilder,
		ready:     cfg.Ready,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /v1/clients", s.handleCreateClient)
	mux.HandleFunc("POST /v1/curricula", s.handleCreateCurriculum)
	mux.HandleFunc("GET /v1/users/{userId}/curricula", s.handleListCurricula)
	mux.HandleFunc("GET /v1/users/{userId}/curricula/{id}", s.handleGetCurriculum)
	mux.HandleFunc("GET /v1/users/{userId}/curricula/{id}/export", s.handleExport)
	mux.HandleFunc("GET /v1/users/{userId}/curricula/{id}/modules/{moduleId}/exercises", s.handleGetExercises)
	mux.HandleFunc("POST /v1/users/{userId}/curricula/{id}/modules/{moduleId}/complete", s.handleCompleteModule)

	mux.HandleFunc("GET /v1/notes", s.handleQueryNotes)
	mux.HandleFunc("POST /v1/notes/rebuild", s.handleRebuildNotes)

	return withLogging(withCORS(cfg.AllowedOrigins, mux))
}
