package testsupport

import (
	"testing"

	"orrery/internal/catalog"
	"orrery/internal/config"
)

// MustOpenStore opens a catalog store for the supplied config and fails the
// test on error. The store is closed automatically during cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}
