package testsupport

import (
	"context"
	"fmt"
	"testing"

	"backlog/internal/config"
	"backlog/internal/features"
)

// MustOpenStore opens a features.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *features.Store {
	t.Helper()

	store, err := features.Open(cfg)
	if err != nil {
		t.Fatalf("features.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedFeatures inserts count minimal drafts and returns how many were created.
func SeedFeatures(t testing.TB, store *features.Store, count int) int {
	t.Helper()

	drafts := make([]features.Draft, 0, count)
	for i := 0; i < count; i++ {
		drafts = append(drafts, features.Draft{
			Category:    "core",
			Name:        fmt.Sprintf("feature-%d", i+1),
			Description: fmt.Sprintf("test feature %d", i+1),
			Steps:       []string{"do the thing", "verify the thing"},
		})
	}
	created, err := store.CreateBatch(context.Background(), drafts)
	if err != nil {
		t.Fatalf("store.CreateBatch: %v", err)
	}
	return created
}
