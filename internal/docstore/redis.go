package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "docstore"

// RedisStore keeps one string key per written path plus, for every
// ancestor, a set of child segments so subtrees can be walked without SCAN.
//
//	{prefix}:doc:{path}      JSON body
//	{prefix}:children:{path} SET of child segments
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store. An empty prefix uses "docstore".
func NewRedisStore(client *redis.Client, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) docKey(path string) string      { return s.prefix + ":doc:" + path }
func (s *RedisStore) childrenKey(path string) string { return s.prefix + ":children:" + path }

func (s *RedisStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segs, err := Split(path)
	if err != nil {
		return nil, err
	}
	clean := Join(segs...)

	exact := append(ancestors(segs), clean)
	keys := make([]string, len(exact))
	for i, p := range exact {
		keys[i] = s.docKey(p)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("GET", clean, err)
	}

	var entries []entry
	for i, v := range vals {
		if body, ok := v.(string); ok {
			entries = append(entries, entry{path: exact[i], body: []byte(body)})
		}
	}

	descendants, err := s.descendants(ctx, clean)
	if err != nil {
		return nil, unavailable("GET", clean, err)
	}
	if len(descendants) > 0 {
		keys := make([]string, len(descendants))
		for i, p := range descendants {
			keys[i] = s.docKey(p)
		}
		vals, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, unavailable("GET", clean, err)
		}
		for i, v := range vals {
			if body, ok := v.(string); ok {
				entries = append(entries, entry{path: descendants[i], body: []byte(body)})
			}
		}
	}

	return assemble(clean, entries)
}

func (s *RedisStore) Put(ctx context.Context, path string, doc json.RawMessage) error {
	segs, err := Split(path)
	if err != nil {
		return err
	}
	clean := Join(segs...)
	if !json.Valid(doc) {
		return fmt.Errorf("document for %s is not valid JSON", clean)
	}

	descendants, err := s.descendants(ctx, clean)
	if err != nil {
		return unavailable("PUT", clean, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range descendants {
			pipe.Del(ctx, s.docKey(p), s.childrenKey(p))
		}
		pipe.Del(ctx, s.childrenKey(clean))
		if isNull(doc) {
			pipe.Del(ctx, s.docKey(clean))
			return nil
		}
		pipe.Set(ctx, s.docKey(clean), string(doc), 0)
		parents := ancestors(segs)
		for i, parent := range parents {
			pipe.SAdd(ctx, s.childrenKey(parent), segs[i+1])
		}
		return nil
	})
	if err != nil {
		return unavailable("PUT", clean, err)
	}
	return nil
}

func (s *RedisStore) Post(ctx context.Context, path string, doc json.RawMessage) (string, error) {
	key, err := NewKey()
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, Join(path, key), doc); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the client belongs to the caller.
func (s *RedisStore) Close() error { return nil }

// descendants walks the children sets breadth first.
func (s *RedisStore) descendants(ctx context.Context, path string) ([]string, error) {
	var out []string
	queue := []string{path}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		children, err := s.client.SMembers(ctx, s.childrenKey(parent)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("list children of %s: %w", parent, err)
		}
		for _, c := range children {
			p := parent + "/" + c
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	return out, nil
}
