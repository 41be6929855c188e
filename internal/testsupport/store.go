package testsupport

import (
	"testing"

	"recipebox/internal/config"
	"recipebox/internal/localstore"
)

// MustOpenStore opens a localstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *localstore.Store {
	t.Helper()

	store, err := localstore.Open(cfg, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
