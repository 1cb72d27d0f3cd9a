package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"speakerline/internal/logging"
)

func makeDir(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(dir, stamp, stamp); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}
	return dir
}

func TestPruneInvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		root   string
		maxAge time.Duration
	}{
		{name: "empty", root: "", maxAge: time.Hour},
		{name: "blank", root: "   ", maxAge: time.Hour},
		{name: "missing", root: "/nonexistent/speakerline/12345", maxAge: time.Hour},
		{name: "zero age", root: t.TempDir(), maxAge: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Prune(context.Background(), tt.root, tt.maxAge, logging.NewNop())
			if len(result.Removed) != 0 || len(result.Errors) != 0 {
				t.Fatalf("expected empty result, got %+v", result)
			}
		})
	}
}

func TestPruneRemovesOldDirectories(t *testing.T) {
	root := t.TempDir()
	oldDir := makeDir(t, root, "old-episode", 48*time.Hour)
	recentDir := makeDir(t, root, "recent-episode", 0)
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	result := Prune(context.Background(), root, 24*time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("Removed = %v, want [%s]", result.Removed, oldDir)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Fatalf("old directory still present: %v", err)
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Fatalf("recent directory removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "stray.txt")); err != nil {
		t.Fatalf("stray file removed: %v", err)
	}
}

func TestPruneSkipsLockedDirectories(t *testing.T) {
	root := t.TempDir()
	busy := makeDir(t, root, "busy", 0)

	lock := flock.New(filepath.Join(busy, LockFile))
	if err := lock.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	stamp := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(busy, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := Prune(context.Background(), root, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("Removed = %v, want none", result.Removed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != busy {
		t.Fatalf("Skipped = %v, want [%s]", result.Skipped, busy)
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	older := makeDir(t, root, "first", 2*time.Hour)
	makeDir(t, root, "second", time.Hour)
	if err := os.WriteFile(filepath.Join(older, "words.json"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stamp := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(older, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "not-a-dir"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dirs, err := List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("got %d directories, want 2", len(dirs))
	}
	if dirs[0].Name != "first" || dirs[1].Name != "second" {
		t.Fatalf("order = %s, %s; want first, second", dirs[0].Name, dirs[1].Name)
	}
	if dirs[0].Size != 5 {
		t.Fatalf("size = %d, want 5", dirs[0].Size)
	}
	if dirs[0].Path != older {
		t.Fatalf("path = %q, want %q", dirs[0].Path, older)
	}
	if dirs[0].Locked {
		t.Fatal("unlocked directory reported as locked")
	}
}

func TestListMissingRoot(t *testing.T) {
	dirs, err := List(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if dirs != nil {
		t.Fatalf("expected nil, got %v", dirs)
	}
}
