package testsupport

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"speakerline/internal/config"
	"speakerline/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRun creates a running run record for tests using the provided store.
func NewRun(t testing.TB, st *store.Store, audioPath string) *store.Run {
	t.Helper()

	run, err := st.CreateRun(context.Background(), uuid.NewString(), audioPath)
	if err != nil {
		t.Fatalf("store.CreateRun: %v", err)
	}
	return run
}
