package notes

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const notesSuffix = ".notes.md"

// Load reads every topic and Markdown file under rootDir into a new Index.
// An empty rootDir yields an empty index.
func Load(rootDir string) (*Index, error) {
	if rootDir == "" {
		return NewIndex(nil), nil
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("loading notes: %s is not a directory", rootDir)
	}

	var docs []Document
	err = filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, notesSuffix):
			// Paired bodies are read with their topic YAML; orphans stand alone.
			if _, ok := topicFile(strings.TrimSuffix(path, notesSuffix)); ok {
				return nil
			}
			doc, err := loadMarkdown(rootDir, path)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		case strings.HasSuffix(path, ".md"):
			doc, err := loadMarkdown(rootDir, path)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			doc, ok, err := loadTopic(rootDir, path)
			if err != nil {
				return err
			}
			if ok {
				docs = append(docs, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}

	idx := NewIndex(docs)
	slog.Info("notes loaded", "documents", idx.Len(), "root", rootDir)
	return idx, nil
}

func loadTopic(rootDir, path string) (Document, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, false, err
	}

	var topic Topic
	if err := yaml.Unmarshal(data, &topic); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return Document{}, false, nil
	}
	if topic.ID == "" {
		return Document{}, false, nil // not a topic file
	}

	body := topic.Summary
	base := strings.TrimSuffix(strings.TrimSuffix(path, ".yaml"), ".yml")
	if notes, err := os.ReadFile(base + notesSuffix); err == nil {
		body = strings.TrimSpace(body + "\n\n" + string(notes))
	}

	name := topic.Name
	if name == "" {
		name = topic.ID
	}
	return Document{
		ID:       topic.ID,
		Name:     name,
		Track:    topic.Track,
		Keywords: topic.Keywords,
		Body:     body,
		Path:     relPath(rootDir, path),
	}, true, nil
}

func loadMarkdown(rootDir, path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	rel := relPath(rootDir, path)
	name := heading(string(data))
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), notesSuffix), ".md")
	}
	return Document{
		ID:   rel,
		Name: name,
		Body: string(data),
		Path: rel,
	}, nil
}

// topicFile returns the YAML file sharing base, if any.
func topicFile(base string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext, true
		}
	}
	return "", false
}

// heading returns the first Markdown level-one heading.
func heading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func relPath(rootDir, path string) string {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
