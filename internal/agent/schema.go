package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-roadmap/internal/textnorm"
)

const curriculumSchema = `{
  "type": "object",
  "required": ["curriculum"],
  "properties": {
    "name": {"type": "string"},
    "curriculum": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "difficultyLevel", "track"],
        "properties": {
          "title": {"type": "string", "minLength": 1, "pattern": "\\S"},
          "difficultyLevel": {"type": "integer", "minimum": 1},
          "track": {"type": "string", "enum": ["React", "Node.js", "SQL"]}
        }
      }
    }
  }
}`

const exercisesSchema = `{
  "type": "object",
  "required": ["exercises"],
  "properties": {
    "exercises": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "object"}
    }
  }
}`

var (
	loadCurriculumSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(curriculumSchema))
	})
	loadExercisesSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(exercisesSchema))
	})
)

// Agents answer in Spanish or English; keys are matched after folding
// (lower case, no accents, no separators).
var (
	rootKeys = map[string]string{
		"name":       "name",
		"nombre":     "name",
		"project":    "name",
		"proyecto":   "name",
		"curriculum": "curriculum",
		"modules":    "curriculum",
		"modulos":    "curriculum",
		"exercises":  "exercises",
		"ejercicios": "exercises",
	}
	moduleKeys = map[string]string{
		"title":            "title",
		"titulo":           "title",
		"difficultylevel":  "difficultyLevel",
		"difficulty":       "difficultyLevel",
		"niveldificultad":  "difficultyLevel",
		"track":            "track",
		"tareaaprendizaje": "track",
	}
	exerciseKeys = map[string]string{
		"title":              "title",
		"titulo":             "title",
		"type":               "type",
		"tipo":               "type",
		"level":              "level",
		"nivel":              "level",
		"theory":             "theory",
		"descripcionteorica": "theory",
		"prompt":             "prompt",
		"enunciado":          "prompt",
		"expectedanswer":     "expectedAnswer",
		"answer":             "expectedAnswer",
		"respuestacorrecta":  "expectedAnswer",
	}
)

// NormalizeCurriculum validates raw curriculum-agent output and reshapes it
// into modules. Identity and state are always assigned here: moduleId is the
// position, completed is false and exercises is empty.
func NormalizeCurriculum(raw json.RawMessage) (Draft, error) {
	root, err := decodeObject(raw)
	if err != nil {
		return Draft{}, err
	}
	root = renameKeys(root, rootKeys)

	if items, ok := root["curriculum"].([]any); ok {
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			m = renameKeys(m, moduleKeys)
			coerceModule(m)
			items[i] = m
		}
	}

	schema, err := loadCurriculumSchema()
	if err != nil {
		return Draft{}, fmt.Errorf("compile curriculum schema: %w", err)
	}
	if err := validate(schema, root); err != nil {
		return Draft{}, fmt.Errorf("curriculum: %w", err)
	}

	items := root["curriculum"].([]any)
	draft := Draft{Modules: make([]Module, 0, len(items))}
	if name, ok := root["name"].(string); ok {
		draft.Name = strings.TrimSpace(name)
	}
	for i, item := range items {
		m := item.(map[string]any)
		level, ok := asInt(m["difficultyLevel"])
		if !ok {
			return Draft{}, fmt.Errorf("%w: curriculum: module %d: difficultyLevel %v out of range", ErrUpstreamSchema, i, m["difficultyLevel"])
		}
		track, _ := ParseTrack(m["track"].(string))
		draft.Modules = append(draft.Modules, Module{
			ModuleID:        ModuleID(strconv.Itoa(i)),
			Title:           strings.TrimSpace(m["title"].(string)),
			DifficultyLevel: level,
			Track:           track,
			Exercises:       []Exercise{},
			Completed:       false,
		})
	}
	return draft, nil
}

// NormalizeExercises validates raw exercises-agent output. Known fields are
// stringified; any other field is kept as given in Exercise.Extra.
func NormalizeExercises(raw json.RawMessage) ([]Exercise, error) {
	root, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	root = renameKeys(root, rootKeys)

	schema, err := loadExercisesSchema()
	if err != nil {
		return nil, fmt.Errorf("compile exercises schema: %w", err)
	}
	if err := validate(schema, root); err != nil {
		return nil, fmt.Errorf("exercises: %w", err)
	}

	items := root["exercises"].([]any)
	out := make([]Exercise, 0, len(items))
	for _, item := range items {
		m := renameKeys(item.(map[string]any), exerciseKeys)
		ex := Exercise{
			Title:          text(m["title"]),
			Type:           text(m["type"]),
			Level:          text(m["level"]),
			Theory:         text(m["theory"]),
			Prompt:         text(m["prompt"]),
			ExpectedAnswer: text(m["expectedAnswer"]),
		}
		for _, k := range exerciseFields {
			delete(m, k)
		}
		if len(m) > 0 {
			ex.Extra = m
		}
		out = append(out, ex)
	}
	return out, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decode agent output: %v", ErrUpstreamSchema, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: agent output is not a JSON object", ErrUpstreamSchema)
	}
	return obj, nil
}

func validate(schema *gojsonschema.Schema, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamSchema, err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamSchema, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrUpstreamSchema, strings.Join(msgs, "; "))
}

// renameKeys returns m with known aliases replaced by canonical keys. A
// canonical key already present wins over an alias.
func renameKeys(m map[string]any, aliases map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		canon, ok := aliases[compactKey(k)]
		if !ok {
			out[k] = v
			continue
		}
		if _, exists := out[canon]; exists && k != canon {
			continue
		}
		out[canon] = v
	}
	return out
}

// coerceModule repairs values agents commonly get almost right: numeric
// strings for difficulty and aliased track names.
func coerceModule(m map[string]any) {
	if s, ok := m["difficultyLevel"].(string); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			m["difficultyLevel"] = json.Number(strconv.Itoa(n))
		}
	}
	if s, ok := m["track"].(string); ok {
		if t, ok := ParseTrack(s); ok {
			m["track"] = string(t)
		}
	}
}

// asInt converts an integral JSON number that fits in an int.
func asInt(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt || i > math.MaxInt {
			return 0, false
		}
		return int(i), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// compactKey folds a key and drops separators so that nivel_dificultad,
// nivelDificultad and "Nivel dificultad" compare equal.
func compactKey(k string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == ' ' {
			return -1
		}
		return r
	}, textnorm.Fold(k))
}
