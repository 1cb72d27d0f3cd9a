package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speakerline/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckHFToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if r := CheckHFToken(cfg); !r.Passed {
		t.Fatalf("expected pass with token, got %s", r.Detail)
	}
	cfg.Transcription.HFToken = " "
	if r := CheckHFToken(cfg); r.Passed {
		t.Fatal("expected failure without token")
	}
}

func TestCheckVoiceprints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if r := CheckVoiceprints(ctx, cfg, st); !r.Passed || r.Detail != "Disabled" {
		t.Fatalf("expected disabled pass, got %+v", r)
	}

	cfg.Identity.Enabled = true
	if r := CheckVoiceprints(ctx, cfg, st); r.Passed {
		t.Fatal("expected failure with empty gallery")
	}

	if _, err := st.AddVoiceprint(ctx, "Grey", "", []float32{1, 2}); err != nil {
		t.Fatalf("AddVoiceprint: %v", err)
	}
	r := CheckVoiceprints(ctx, cfg, st)
	if !r.Passed || !strings.Contains(r.Detail, "Grey") {
		t.Fatalf("expected pass naming Grey, got %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, nil)
	// work, state, log, output directories plus the token check
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ReportsMissingDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.OutputDir = ""

	failed := Failed(RunAll(context.Background(), cfg, nil))
	if len(failed) != 3 {
		t.Fatalf("expected work/state/log failures, got %+v", failed)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Available {
			t.Fatalf("expected stubbed %s to be available: %s", s.Name, s.Detail)
		}
	}

	cfg.Transcription.CUDAEnabled = true
	if statuses := CheckSystemDeps(context.Background(), cfg); len(statuses) != 3 || !statuses[2].Optional {
		t.Fatalf("expected optional nvidia-smi check, got %+v", statuses)
	}
}
