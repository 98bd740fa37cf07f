package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// runStoreSuite exercises the tree semantics every backend must share.
func runStoreSuite(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent path reads nil", func(t *testing.T) {
		got, err := s.Get(ctx, "missing/node")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != nil {
			t.Errorf("Get() = %s, want nil", got)
		}
	})

	t.Run("subtree reads", func(t *testing.T) {
		mustPut(t, s, "tree/u1/0", `{"id":"0","name":"first"}`)
		mustPut(t, s, "tree/u1/1", `{"id":"1","name":"second"}`)

		assertJSON(t, mustGet(t, s, "tree/u1/0"), `{"id":"0","name":"first"}`)
		assertJSON(t, mustGet(t, s, "tree/u1"), `{"0":{"id":"0","name":"first"},"1":{"id":"1","name":"second"}}`)
		assertJSON(t, mustGet(t, s, "tree"), `{"u1":{"0":{"id":"0","name":"first"},"1":{"id":"1","name":"second"}}}`)
	})

	t.Run("put overwrites the whole subtree", func(t *testing.T) {
		mustPut(t, s, "over/a/b", `{"n":1}`)
		mustPut(t, s, "over/a", `{"x":true}`)

		if got := mustGet(t, s, "over/a/b"); got != nil {
			t.Errorf("Get(over/a/b) = %s, want nil after parent overwrite", got)
		}
		assertJSON(t, mustGet(t, s, "over"), `{"a":{"x":true}}`)
	})

	t.Run("reads inside an ancestor document", func(t *testing.T) {
		mustPut(t, s, "anc", `{"q":{"r":1}}`)
		assertJSON(t, mustGet(t, s, "anc/q"), `{"r":1}`)
		if got := mustGet(t, s, "anc/q/none"); got != nil {
			t.Errorf("Get(anc/q/none) = %s, want nil", got)
		}
	})

	t.Run("deeper write overlays ancestor document", func(t *testing.T) {
		mustPut(t, s, "lay", `{"b":{"c":1},"k":"v"}`)
		mustPut(t, s, "lay/b", `{"d":2}`)
		assertJSON(t, mustGet(t, s, "lay"), `{"b":{"d":2},"k":"v"}`)
	})

	t.Run("post generates distinct keys", func(t *testing.T) {
		k1, err := s.Post(ctx, "clients", json.RawMessage(`{"createdAt":1}`))
		if err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		k2, err := s.Post(ctx, "clients", json.RawMessage(`{"createdAt":2}`))
		if err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		if k1 == "" || k1 == k2 {
			t.Fatalf("Post() keys = %q, %q, want distinct non-empty", k1, k2)
		}
		assertJSON(t, mustGet(t, s, "clients/"+k1), `{"createdAt":1}`)
		assertJSON(t, mustGet(t, s, "clients/"+k2), `{"createdAt":2}`)
	})

	t.Run("invalid paths are rejected", func(t *testing.T) {
		for _, p := range []string{"", "/", "a//b", "a/b.c", "a/$x"} {
			if _, err := s.Get(ctx, p); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Get(%q) error = %v, want ErrInvalidPath", p, err)
			}
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestClean(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"plain", "curricula/u1/0", "curricula/u1/0", false},
		{"surrounding slashes", "/curricula/u1/", "curricula/u1", false},
		{"empty", "", "", true},
		{"empty segment", "curricula//0", "", true},
		{"dot", "curricula/a.b", "", true},
		{"hash", "curricula/#1", "", true},
		{"bracket", "curricula/[0]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Clean(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestAssemble_Empty(t *testing.T) {
	got, err := assemble("a", nil)
	if err != nil {
		t.Fatalf("assemble() error = %v", err)
	}
	if got != nil {
		t.Errorf("assemble() = %s, want nil", got)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`user_1%x\y`); got != `user\_1\%x\\y` {
		t.Errorf("escapeLike() = %q", got)
	}
}

func TestNewKey_Ordered(t *testing.T) {
	prev := ""
	for i := 0; i < 50; i++ {
		k, err := NewKey()
		if err != nil {
			t.Fatalf("NewKey() error = %v", err)
		}
		if ValidKey(k) != nil {
			t.Fatalf("NewKey() = %q is not a valid key", k)
		}
		if k <= prev {
			t.Fatalf("NewKey() = %q not after %q", k, prev)
		}
		prev = k
	}
}

func mustPut(t *testing.T, s Store, path, doc string) {
	t.Helper()
	if err := s.Put(context.Background(), path, json.RawMessage(doc)); err != nil {
		t.Fatalf("Put(%s) error = %v", path, err)
	}
}

func mustGet(t *testing.T, s Store, path string) json.RawMessage {
	t.Helper()
	got, err := s.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", path, err)
	}
	return got
}

func assertJSON(t *testing.T, got json.RawMessage, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("unmarshal got %s: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("unmarshal want %s: %v", want, err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Errorf("document = %s, want %s", got, want)
	}
}
