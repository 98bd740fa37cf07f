package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Backend holding the tree as nested maps.
type MemoryStore struct {
	root map[string]any
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: make(map[string]any)}
}

func (s *MemoryStore) Get(_ context.Context, path string) (json.RawMessage, error) {
	segs, err := Split(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := lookup(s.root, segs)
	if !ok {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *MemoryStore) Put(_ context.Context, path string, doc json.RawMessage) error {
	segs, err := Split(path)
	if err != nil {
		return err
	}
	val, err := decode(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if root, ok := setAt(s.root, segs, val).(map[string]any); ok {
		s.root = root
	}
	return nil
}

func (s *MemoryStore) Post(ctx context.Context, path string, doc json.RawMessage) (string, error) {
	key, err := NewKey()
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, Join(path, key), doc); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MemoryStore) HealthCheck(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
