package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestTranscribeFileBuildsArgsAndLocatesJSON(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "episode.wav")
	outDir := filepath.Join(dir, "out")

	svc := NewService(Config{Model: "small.en", VADMethod: VADMethodPyannote, HFToken: "tok"}, "")
	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return os.WriteFile(filepath.Join(outDir, "episode.json"), []byte(`{"segments":[]}`), 0o644)
	})

	result, err := svc.TranscribeFile(context.Background(), source, outDir, "english")
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if gotName != UVXCommand {
		t.Fatalf("command = %q, want %q", gotName, UVXCommand)
	}
	if result.JSONPath != filepath.Join(outDir, "episode.json") {
		t.Fatalf("JSONPath = %q", result.JSONPath)
	}
	if result.Language != "en" {
		t.Fatalf("Language = %q, want en", result.Language)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"--model small.en",
		"--output_format json",
		"--vad_method pyannote",
		"--hf_token tok",
		"--language en",
		"--device cpu",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
}

func TestTranscribeFileCUDAIndexes(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true}, "")
	args := svc.buildArgs("a.wav", "out", "")
	if args[0] != "--index-url" || args[1] != CUDAIndexURL {
		t.Fatalf("expected CUDA index first, got %v", args[:2])
	}
	if !slices.Contains(args, CUDADevice) {
		t.Fatalf("expected cuda device in %v", args)
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("unexpected --language for empty language: %v", args)
	}
	if slices.Contains(args, "--hf_token") {
		t.Fatalf("silero VAD must not pass a token: %v", args)
	}
}

func TestBuildArgsDecoding(t *testing.T) {
	tests := []struct {
		name     string
		decoding Decoding
		want     []string
	}{
		{name: "defaults", want: []string{"--batch_size 4 ", "--beam_size 10 ", "--temperature 0 ", "--vad_onset 0.08 "}},
		{name: "override", decoding: Decoding{BatchSize: 16, ChunkSize: 30, BeamSize: 5, BestOf: 5, Temperature: 0.2, Patience: 1.5, VADOnset: 0.5, VADOffset: 0.36},
			want: []string{"--batch_size 16 ", "--beam_size 5 ", "--temperature 0.2 ", "--patience 1.5 ", "--vad_offset 0.36 "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(Config{Decoding: tt.decoding}, "")
			joined := strings.Join(svc.buildArgs("a.wav", "out", ""), " ")
			for _, want := range tt.want {
				if !strings.Contains(joined, want) {
					t.Fatalf("args missing %q: %s", want, joined)
				}
			}
		})
	}
}

func TestTranscribeFileMissingOutput(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })

	if _, err := svc.TranscribeFile(context.Background(), filepath.Join(dir, "a.wav"), dir, ""); err == nil {
		t.Fatal("expected error when WhisperX writes no JSON")
	}
}

func TestTranscribeFileRunnerError(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, "")
	boom := errors.New("boom")
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return boom })

	_, err := svc.TranscribeFile(context.Background(), filepath.Join(dir, "a.wav"), dir, "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}

func TestNormalizeAudioUsesFFmpeg(t *testing.T) {
	svc := NewService(Config{}, "/opt/ffmpeg")
	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})
	if err := svc.NormalizeAudio(context.Background(), "in.mp3", "out.wav"); err != nil {
		t.Fatalf("NormalizeAudio: %v", err)
	}
	if gotName != "/opt/ffmpeg" {
		t.Fatalf("binary = %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-ac 1 -ar 16000") || gotArgs[len(gotArgs)-1] != "out.wav" {
		t.Fatalf("unexpected ffmpeg args: %s", joined)
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("a\nb\n\n  \n"); got != "b" {
		t.Fatalf("lastLine = %q", got)
	}
	if got := lastLine(""); got != "" {
		t.Fatalf("lastLine(empty) = %q", got)
	}
}
