package services_test

import (
	"errors"
	"strings"
	"testing"

	"speakerline/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "identity", "embed", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"identity", "embed", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"malformed", services.Wrap(services.ErrMalformedInput, "normalize", "rttm", "bad line", nil), 2},
		{"empty", services.Wrap(services.ErrEmptyInput, "mapper", "", "no turns", nil), 2},
		{"config", services.Wrap(services.ErrConfiguration, "config", "", "bad anchor", nil), 2},
		{"identity", services.Wrap(services.ErrUnresolvableIdentity, "identity", "", "cluster", nil), 1},
		{"tool", services.Wrap(services.ErrExternalTool, "whisperx", "", "", errors.New("exit 1")), 1},
	}
	for _, tt := range tests {
		if got := services.ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: ExitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}
