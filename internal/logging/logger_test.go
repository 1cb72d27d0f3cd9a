package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"speakerline/internal/config"
	"speakerline/internal/logging"
	"speakerline/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(data)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "0123456789abcdef")
	ctx = services.WithStage(ctx, "realign")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline"))
	logger.Info("windows relabeled", logging.Int("relabeled", 3))

	content := readLog(t, logPath)
	for _, want := range []string{"INFO [pipeline] Run 01234567 (realign) – windows relabeled", "    - relabeled: 3"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, "run_id") {
		t.Fatalf("run id should be folded into the subject, got %q", content)
	}
}

func TestJSONLoggerEmitsStructuredFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "sample discarded", "identity_sample_skipped", logging.Error(errors.New("boom")))

	content := strings.TrimSpace(readLog(t, logPath))
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		t.Fatalf("unmarshal log line %q: %v", content, err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level %v", payload["level"])
	}
	if payload[logging.FieldEventType] != "identity_sample_skipped" {
		t.Fatalf("expected event type, got %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldImpact] == nil || payload[logging.FieldErrorHint] == nil {
		t.Fatalf("expected impact and hint defaults, got %v", payload)
	}
	if _, ok := payload["source"]; !ok {
		t.Fatal("expected source at debug level")
	}
}

func TestWarnWithContextKeepsCallerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "cluster received no identity votes", "identity_unresolved",
		logging.String(logging.FieldImpact, "run aborted"),
		logging.Span("segment", 1500, 4250),
	)

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload[logging.FieldImpact] != "run aborted" {
		t.Fatalf("impact overwritten: %v", payload[logging.FieldImpact])
	}
	if payload[logging.FieldErrorHint] != "check logs for details" {
		t.Fatalf("expected default hint, got %v", payload[logging.FieldErrorHint])
	}
	segment, ok := payload["segment"].(map[string]any)
	if !ok {
		t.Fatalf("expected segment group, got %v", payload["segment"])
	}
	if segment["start"] != float64(1500*time.Millisecond) || segment["end"] != float64(4250*time.Millisecond) {
		t.Fatalf("unexpected segment %v", segment)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	content := readLog(t, logPath)
	if strings.Contains(content, "hidden") || !strings.Contains(content, "shown") {
		t.Fatalf("unexpected level filtering: %q", content)
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		run, stage, want string
	}{
		{"", "", ""},
		{"abc", "", "Run abc"},
		{"", "export", "export"},
		{"0123456789", "map", "Run 01234567 (map)"},
	}
	for _, tc := range tests {
		if got := logging.FormatSubject(tc.run, tc.stage); got != tc.want {
			t.Errorf("FormatSubject(%q, %q) = %q want %q", tc.run, tc.stage, got, tc.want)
		}
	}
}
