package notes

// Topic is study material described by a YAML file, optionally paired with
// a <name>.notes.md body next to it.
type Topic struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Track    string   `yaml:"track"`
	Keywords []string `yaml:"keywords"`
	Summary  string   `yaml:"summary"`
}

// Document is one searchable unit of the library: a topic with its notes, or
// a free-standing Markdown file.
type Document struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Track    string   `json:"track,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Body     string   `json:"-"`
	Path     string   `json:"path"`
}

// Result is a scored search hit.
type Result struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}
