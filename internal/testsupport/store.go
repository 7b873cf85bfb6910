package testsupport

import (
	"context"
	"testing"

	"subweave/internal/config"
	"subweave/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSource enqueues a remote source item for tests using the provided store.
func NewSource(t testing.TB, store *queue.Store, source, title string) *queue.Item {
	t.Helper()

	item, err := store.NewSource(context.Background(), source, title, "")
	if err != nil {
		t.Fatalf("store.NewSource: %v", err)
	}
	return item
}
