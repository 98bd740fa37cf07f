package docstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "data", "docs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	runStoreSuite(t, store)

	if err := store.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestSQLiteStore_LikeWildcardsInPath(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	mustPut(t, store, "curricula/user_1/0", `{"id":"0"}`)
	mustPut(t, store, "curricula/userX1/0", `{"id":"0","other":true}`)

	assertJSON(t, mustGet(t, store, "curricula/user_1"), `{"0":{"id":"0"}}`)
}
