// Package docstore provides a tree-shaped JSON document store addressed by
// slash-separated paths, with interchangeable backends.
//
// A write replaces the whole subtree at its path. A read returns the subtree
// rooted at its path, assembled from every document written at, above or
// below it. A missing node reads as absent (nil, nil).
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrUnavailable wraps every transport-level failure talking to a backend.
var ErrUnavailable = errors.New("document store unavailable")

// ErrInvalidPath is returned for empty paths or segments a backend cannot address.
var ErrInvalidPath = errors.New("invalid document path")

// Store is the read/overwrite/append contract the application depends on.
type Store interface {
	// Get returns the subtree at path, or nil when nothing is stored there.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Put overwrites the subtree at path with doc.
	Put(ctx context.Context, path string, doc json.RawMessage) error
	// Post stores doc under a newly generated child key of path and returns the key.
	Post(ctx context.Context, path string, doc json.RawMessage) (string, error)
}

// Backend is a Store that owns a connection.
type Backend interface {
	Store
	HealthCheck(ctx context.Context) error
	Close() error
}

// forbidden lists characters that cannot appear in a key (Firebase rules,
// applied to every backend so documents stay portable).
const forbidden = ".#$[]"

// Clean normalizes path and validates every segment.
func Clean(path string) (string, error) {
	segs, err := Split(path)
	if err != nil {
		return "", err
	}
	return strings.Join(segs, "/"), nil
}

// Split returns the validated segments of path.
func Split(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(trimmed, "/")
	for _, s := range segs {
		if err := ValidKey(s); err != nil {
			return nil, fmt.Errorf("%w: %q", err, path)
		}
	}
	return segs, nil
}

// ValidKey reports whether key can be used as a single path segment.
func ValidKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.ContainsAny(key, forbidden+"/") {
		return fmt.Errorf("%w: segment %q contains a forbidden character", ErrInvalidPath, key)
	}
	return nil
}

// Join builds a path from segments without validating them.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// NewKey returns a generated child key. UUIDv7 keys sort chronologically,
// like Firebase push ids.
func NewKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return id.String(), nil
}

// ancestors returns every proper prefix of the segment list, shortest first.
func ancestors(segs []string) []string {
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out
}

func unavailable(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, path, err)
}
