package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-roadmap/internal/agent"
)

type problem struct {
	Error problemBody `json:"error"`
}

type problemBody struct {
	Kind    agent.Kind `json:"kind"`
	Message string     `json:"message"`
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind agent.Kind) int {
	switch kind {
	case agent.KindNotFound:
		return http.StatusNotFound
	case agent.KindInvalidRequest:
		return http.StatusBadRequest
	case agent.KindUpstreamSchema, agent.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case agent.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := agent.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind,
			"error", err,
		)
	}
	writeProblem(w, status, kind, err.Error())
}

func writeProblem(w http.ResponseWriter, status int, kind agent.Kind, msg string) {
	writeJSON(w, status, problem{Error: problemBody{Kind: kind, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
