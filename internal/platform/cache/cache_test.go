package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantDB  int
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", 0, false},
		{"valid-with-db", "redis://localhost:6379/3", 3, false},
		{"empty", "", 0, true},
		{"wrong-scheme", "http://localhost:6379", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && opts.DB != tt.wantDB {
				t.Errorf("DB = %d, want %d", opts.DB, tt.wantDB)
			}
		})
	}
}

func TestWithPoolSize(t *testing.T) {
	opts := &redis.Options{PoolSize: 10}
	WithPoolSize(0)(opts)
	if opts.PoolSize != 10 {
		t.Errorf("PoolSize = %d, want unchanged 10", opts.PoolSize)
	}
	WithPoolSize(32)(opts)
	if opts.PoolSize != 32 {
		t.Errorf("PoolSize = %d, want 32", opts.PoolSize)
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	ctx := t.Context()
	_, err := New(ctx, "redis://localhost:59999")
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}
