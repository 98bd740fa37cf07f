package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeFirebase serves the Realtime Database REST contract from a MemoryStore.
func fakeFirebase(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	backing := NewMemoryStore()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("auth"); got != wantAuth {
			t.Errorf("auth = %q, want %q", got, wantAuth)
		}
		if !strings.HasSuffix(r.URL.Path, ".json") {
			t.Errorf("path %q lacks .json suffix", r.URL.Path)
		}
		path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
		ctx := r.Context()

		switch r.Method {
		case http.MethodGet:
			if path == "" {
				w.Write([]byte(`{}`))
				return
			}
			doc, err := backing.Get(ctx, path)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if doc == nil {
				w.Write([]byte("null"))
				return
			}
			w.Write(doc)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			if err := backing.Put(ctx, path, body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Write(body)
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			key, err := backing.Post(ctx, path, body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"name": key})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func TestFirebaseStore(t *testing.T) {
	server := fakeFirebase(t, "secret")
	defer server.Close()

	store, err := NewFirebaseStore(server.URL+"/", "secret")
	if err != nil {
		t.Fatalf("NewFirebaseStore() error = %v", err)
	}
	runStoreSuite(t, store)

	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestFirebaseStore_RequiresURL(t *testing.T) {
	if _, err := NewFirebaseStore("", ""); err == nil {
		t.Fatal("NewFirebaseStore() should require a URL")
	}
}

func TestFirebaseStore_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"down"}`))
	}))
	defer server.Close()

	store, _ := NewFirebaseStore(server.URL, "")

	if _, err := store.Get(context.Background(), "curricula/u1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get() error = %v, want ErrUnavailable", err)
	}
	if err := store.Put(context.Background(), "curricula/u1/0", json.RawMessage(`{}`)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Put() error = %v, want ErrUnavailable", err)
	}
	if err := store.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail on 5xx")
	}
}

func TestFirebaseStore_UnreachableIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store, _ := NewFirebaseStore(url, "")
	if _, err := store.Get(context.Background(), "clients"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get() error = %v, want ErrUnavailable", err)
	}
}
