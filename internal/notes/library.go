package notes

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Library owns the notes index for one root directory. Readers always see a
// complete index; Rebuild swaps in a new one atomically.
type Library struct {
	root    string
	current atomic.Pointer[Index]
}

// NewLibrary loads rootDir and returns a library serving it.
func NewLibrary(rootDir string) (*Library, error) {
	idx, err := Load(rootDir)
	if err != nil {
		return nil, err
	}
	l := &Library{root: rootDir}
	l.current.Store(idx)
	return l, nil
}

// NewEmptyLibrary returns a library for rootDir that serves an empty index
// until the first successful Rebuild. Use it when rootDir does not exist yet.
func NewEmptyLibrary(rootDir string) *Library {
	l := &Library{root: rootDir}
	l.current.Store(NewIndex(nil))
	return l
}

// Index returns the current index.
func (l *Library) Index() *Index {
	return l.current.Load()
}

// Rebuild reloads the root directory and swaps the index. On failure the
// previous index keeps serving.
func (l *Library) Rebuild() (int, error) {
	idx, err := Load(l.root)
	if err != nil {
		slog.Warn("notes rebuild failed, keeping previous index", "root", l.root, "error", err)
		return 0, fmt.Errorf("rebuild notes: %w", err)
	}
	old := l.current.Swap(idx)
	slog.Info("notes index rebuilt",
		"documents", idx.Len(),
		"previous_documents", old.Len(),
	)
	return idx.Len(), nil
}
