package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "out.txt")

	if err := WriteFileAtomic(dst, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("content mismatch: got %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be renamed away, found %d entries", len(entries))
	}
}

func TestWriteAtomicKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.srt")
	if err := os.WriteFile(dst, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := WriteAtomic(dst, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous" {
		t.Fatalf("previous content replaced: %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestWriteFilesAtomic(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "show.txt")
	srt := filepath.Join(dir, "show.srt")
	if err := os.WriteFile(txt, []byte("old transcript"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := WriteFilesAtomic([]PendingFile{
		{Path: txt, Data: []byte("new transcript")},
		{Path: srt, Data: []byte("new subtitles")},
	}, 0o644)
	if err != nil {
		t.Fatalf("WriteFilesAtomic: %v", err)
	}
	for path, want := range map[string]string{txt: "new transcript", srt: "new subtitles"} {
		got, err := os.ReadFile(path)
		if err != nil || string(got) != want {
			t.Fatalf("%s = %q (%v), want %q", filepath.Base(path), got, err, want)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("expected temp and backup files removed, found %d entries", len(entries))
	}
}

func TestWriteFilesAtomicLeavesSetUntouchedOnFailure(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "show.txt")
	blocked := filepath.Join(dir, "show.srt")
	if err := os.WriteFile(txt, []byte("old transcript"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatal(err)
	}

	err := WriteFilesAtomic([]PendingFile{
		{Path: txt, Data: []byte("new transcript")},
		{Path: blocked, Data: []byte("new subtitles")},
	}, 0o644)
	if err == nil {
		t.Fatal("expected error for directory target")
	}
	got, err := os.ReadFile(txt)
	if err != nil || string(got) != "old transcript" {
		t.Fatalf("transcript replaced: %q (%v)", got, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("expected temp files cleaned up, found %d entries", len(entries))
	}
}

func TestRollbackRestoresCommittedFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.txt")
	created := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	staged := make([]stagedFile, 0, 2)
	for _, f := range []PendingFile{{Path: existing, Data: []byte("new")}, {Path: created, Data: []byte("new")}} {
		s, err := stageFile(f, 0o644)
		if err != nil {
			t.Fatalf("stageFile: %v", err)
		}
		if err := commitFile(&s); err != nil {
			t.Fatalf("commitFile: %v", err)
		}
		staged = append(staged, s)
	}

	rollback(staged)

	if got, err := os.ReadFile(existing); err != nil || string(got) != "old" {
		t.Fatalf("existing file not restored: %q (%v)", got, err)
	}
	if _, err := os.Stat(created); !os.IsNotExist(err) {
		t.Fatalf("new file should be removed on rollback: %v", err)
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if NonEmptyFile(empty) || NonEmptyFile(dir) || NonEmptyFile(filepath.Join(dir, "missing")) {
		t.Fatal("expected empty, directory and missing paths to report false")
	}
	if !NonEmptyFile(full) {
		t.Fatal("expected non-empty file to report true")
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "nonexistent")
	dst := filepath.Join(dir, "dst.bin")

	if err := CopyFileVerified(src, dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected no destination file, got %v", err)
	}
}
