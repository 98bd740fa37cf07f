package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-roadmap/internal/textnorm"
)

// Track is the learning branch a module belongs to.
type Track string

const (
	TrackReact Track = "React"   // frontend
	TrackNode  Track = "Node.js" // backend
	TrackSQL   Track = "SQL"     // data
)

// trackAliases maps folded names to tracks.
var trackAliases = map[string]Track{
	"react":          TrackReact,
	"frontend":       TrackReact,
	"front_end":      TrackReact,
	"html":           TrackReact,
	"css":            TrackReact,
	"javascript":     TrackReact,
	"node.js":        TrackNode,
	"nodejs":         TrackNode,
	"node":           TrackNode,
	"backend":        TrackNode,
	"back_end":       TrackNode,
	"express":        TrackNode,
	"sql":            TrackSQL,
	"data":           TrackSQL,
	"database":       TrackSQL,
	"bases_de_datos": TrackSQL,
	"base_de_datos":  TrackSQL,
}

// ParseTrack resolves a track name, case and accent insensitively.
func ParseTrack(s string) (Track, bool) {
	key := strings.ReplaceAll(textnorm.Fold(s), " ", "_")
	t, ok := trackAliases[key]
	return t, ok
}

// ModuleID is the stringified creation-order index of a module. Older
// documents stored it as a number, so both forms decode.
type ModuleID string

func (id *ModuleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ModuleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("moduleId: %w", err)
	}
	*id = ModuleID(n.String())
	return nil
}

// index returns the integer form of the id.
func (id ModuleID) index() (int, bool) {
	return parseIndex(string(id))
}

// Exercise is one practice item. The core never interprets its fields.
// Fields the agent adds beyond the known ones (answer options, hints) are
// kept in Extra and written back inline.
type Exercise struct {
	Title          string         `json:"title"`
	Type           string         `json:"type"`
	Level          string         `json:"level"`
	Theory         string         `json:"theory"`
	Prompt         string         `json:"prompt"`
	ExpectedAnswer string         `json:"expectedAnswer"`
	Extra          map[string]any `json:"-"`
}

var exerciseFields = []string{"title", "type", "level", "theory", "prompt", "expectedAnswer"}

type plainExercise Exercise

func (e Exercise) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(plainExercise(e))
	if err != nil || len(e.Extra) == 0 {
		return body, err
	}
	var known map[string]any
	if err := json.Unmarshal(body, &known); err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(e.Extra)+len(known))
	for k, v := range e.Extra {
		merged[k] = v
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	var p plainExercise
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range exerciseFields {
		delete(all, k)
	}
	p.Extra = nil
	if len(all) > 0 {
		p.Extra = all
	}
	*e = Exercise(p)
	return nil
}

// Module is one unit of a curriculum.
type Module struct {
	ModuleID        ModuleID   `json:"moduleId"`
	Title           string     `json:"title"`
	DifficultyLevel int        `json:"difficultyLevel"`
	Track           Track      `json:"track"`
	Exercises       []Exercise `json:"exercises"`
	Completed       bool       `json:"completed"`
}

// Curriculum is the learning plan generated for one goal.
type Curriculum struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Name      string   `json:"name"`
	Modules   []Module `json:"modules"`
	CreatedAt int64    `json:"createdAt"` // unix milliseconds
}

// Draft is a validated curriculum before it has an owner and an id.
type Draft struct {
	Name    string
	Modules []Module
}

// Summary is the listing view of a curriculum.
type Summary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ModuleCount    int    `json:"moduleCount"`
	CompletedCount int    `json:"completedCount"`
	CreatedAt      int64  `json:"createdAt"`
}

// Completion is returned when a module is marked complete.
type Completion struct {
	ModuleID  ModuleID `json:"moduleId"`
	Completed bool     `json:"completed"`
}

// findModule returns the index of the module with the given id, comparing
// the int-coerced form when both sides are numeric.
func (c *Curriculum) findModule(id ModuleID) int {
	want, wantNum := id.index()
	for i, m := range c.Modules {
		if m.ModuleID == id {
			return i
		}
		if got, ok := m.ModuleID.index(); ok && wantNum && got == want {
			return i
		}
	}
	return -1
}

// summary builds the listing view.
func (c *Curriculum) summary() Summary {
	done := 0
	for _, m := range c.Modules {
		if m.Completed {
			done++
		}
	}
	return Summary{
		ID:             c.ID,
		Name:           c.Name,
		ModuleCount:    len(c.Modules),
		CompletedCount: done,
		CreatedAt:      c.CreatedAt,
	}
}

// fillDefaults restores empty collections that some stores drop on write.
func (c *Curriculum) fillDefaults() {
	if c.Modules == nil {
		c.Modules = []Module{}
	}
	for i := range c.Modules {
		if c.Modules[i].Exercises == nil {
			c.Modules[i].Exercises = []Exercise{}
		}
	}
}

func parseIndex(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
