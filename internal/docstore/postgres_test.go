package docstore

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-roadmap/internal/platform/database"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("roadmap"),
		postgres.WithUsername("roadmap"),
		postgres.WithPassword("roadmap"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	testcontainers.CleanupContainer(t, ctr)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}

	db, err := database.New(ctx, dsn, 4, 1)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Migrate is idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	store, err := NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	runStoreSuite(t, store)
}

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := NewPostgresStore(nil); err == nil {
		t.Fatal("NewPostgresStore(nil) should return error")
	}
}
