package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/p-n-ai/pai-roadmap/internal/agent"
	"github.com/p-n-ai/pai-roadmap/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createCurriculumRequest struct {
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	id, err := s.curricula.CreateClient(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *server) handleCreateCurriculum(w http.ResponseWriter, r *http.Request) {
	var req createCurriculumRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.curricula.CreateCurriculum(r.Context(), req.Description, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleListCurricula(w http.ResponseWriter, r *http.Request) {
	list, err := s.curricula.ListCurricula(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGetCurriculum(w http.ResponseWriter, r *http.Request) {
	c, err := s.curricula.GetCurriculumDetails(r.Context(), r.PathValue("userId"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleGetExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.curricula.GetExercises(r.Context(), r.PathValue("userId"), r.PathValue("id"), r.PathValue("moduleId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

func (s *server) handleCompleteModule(w http.ResponseWriter, r *http.Request) {
	done, err := s.curricula.CompleteModule(r.Context(), r.PathValue("userId"), r.PathValue("id"), r.PathValue("moduleId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	c, err := s.curricula.GetCurriculumDetails(r.Context(), r.PathValue("userId"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Render fully before writing so a failure can still produce an error response.
	var buf bytes.Buffer
	if err := export.CurriculumXLSX(c, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(c)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *server) handleQueryNotes(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		writeProblem(w, http.StatusNotFound, agent.KindNotFound, "notes are not configured")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, fmt.Errorf("%w: query parameter q is required", agent.ErrInvalidRequest))
		return
	}
	answer, err := s.notes.Query(r.Context(), q)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", agent.ErrUpstreamUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *server) handleRebuildNotes(w http.ResponseWriter, r *http.Request) {
	if s.rebuilder == nil {
		writeProblem(w, http.StatusNotFound, agent.KindNotFound, "notes are not configured")
		return
	}
	n, err := s.rebuilder.Rebuild()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"documents": n})
}

// decodeBody reads one JSON object from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", agent.ErrInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", agent.ErrInvalidRequest)
	}
	return nil
}
