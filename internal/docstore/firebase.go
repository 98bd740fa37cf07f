package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FirebaseStore talks to a Firebase Realtime Database over its REST API.
// The database natively has the tree semantics of Store.
type FirebaseStore struct {
	baseURL string
	auth    string
	client  *http.Client
}

// FirebaseOption configures a FirebaseStore.
type FirebaseOption func(*FirebaseStore)

// WithFirebaseHTTPClient sets a custom HTTP client.
func WithFirebaseHTTPClient(client *http.Client) FirebaseOption {
	return func(s *FirebaseStore) {
		s.client = client
	}
}

// NewFirebaseStore creates a store for the database at baseURL
// (e.g. https://project-default-rtdb.firebaseio.com). auth is an optional
// database secret or ID token appended as the auth query parameter.
func NewFirebaseStore(baseURL, auth string, opts ...FirebaseOption) (*FirebaseStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("firebase database URL is required (LEARN_STORE_FIREBASE_URL)")
	}
	s := &FirebaseStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *FirebaseStore) url(path string, query url.Values) string {
	u := s.baseURL + "/" + path + ".json"
	if query == nil {
		query = url.Values{}
	}
	if s.auth != "" {
		query.Set("auth", s.auth)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *FirebaseStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	clean, err := Clean(path)
	if err != nil {
		return nil, err
	}

	body, err := s.do(ctx, http.MethodGet, clean, nil)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	return json.RawMessage(trimmed), nil
}

func (s *FirebaseStore) Put(ctx context.Context, path string, doc json.RawMessage) error {
	clean, err := Clean(path)
	if err != nil {
		return err
	}
	_, err = s.do(ctx, http.MethodPut, clean, doc)
	return err
}

// Post uses the database's own push-key generation.
func (s *FirebaseStore) Post(ctx context.Context, path string, doc json.RawMessage) (string, error) {
	clean, err := Clean(path)
	if err != nil {
		return "", err
	}
	body, err := s.do(ctx, http.MethodPost, clean, doc)
	if err != nil {
		return "", err
	}

	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", unavailable("POST", clean, fmt.Errorf("unmarshal response: %w", err))
	}
	if out.Name == "" {
		return "", unavailable("POST", clean, fmt.Errorf("response carries no generated key"))
	}
	return out.Name, nil
}

// HealthCheck does a shallow read of the root; any non-5xx answer means the
// database is reachable.
func (s *FirebaseStore) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url("", url.Values{"shallow": {"true"}}), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *FirebaseStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *FirebaseStore) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url(path, nil), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(method, path, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(method, path, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return body, nil
}
