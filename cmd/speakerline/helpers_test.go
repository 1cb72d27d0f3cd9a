package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speakerline/internal/config"
	"speakerline/internal/pipeline"
	"speakerline/internal/services/whisperx"
	"speakerline/internal/store"
	"speakerline/internal/testsupport"
)

const testWords = `{"language": "en", "segments": [{"words": [
  {"word": "Hello", "start": 0.0, "end": 0.4},
  {"word": "there.", "start": 0.5, "end": 0.9},
  {"word": "I", "start": 2.5, "end": 2.6},
  {"word": "am", "start": 2.7, "end": 2.9},
  {"word": "fine.", "start": 3.0, "end": 3.4}
]}]}`

const testRTTM = "SPEAKER episode 1 0.000 2.200 <NA> <NA> spk0 <NA> <NA>\n" +
	"SPEAKER episode 1 2.200 1.800 <NA> <NA> spk1 <NA> <NA>\n"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	models     *fakeModels
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("HF_TOKEN", cfg.Transcription.HFToken)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	models := &fakeModels{t: t, words: testWords, rttm: testRTTM, vector: []float32{1, 0}}
	previous := serviceFactory
	serviceFactory = models.factory
	t.Cleanup(func() { serviceFactory = previous })

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, models: models}
}

func (e *cliTestEnv) openStore(t *testing.T) *store.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, e.cfg)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
work_dir = %q
output_dir = %q
state_dir = %q
log_dir = %q

[transcription]
hf_token = %q

[identity]
enabled = %t
n_segments = %d

[export]
byte_order_mark = false

[logging]
level = "error"
`,
		cfg.Paths.WorkDir,
		cfg.Paths.OutputDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Transcription.HFToken,
		cfg.Identity.Enabled,
		cfg.Identity.NSegments,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// fakeModels stands in for WhisperX and the speech model helper.
type fakeModels struct {
	t      *testing.T
	words  string
	rttm   string
	vector []float32
}

func (f *fakeModels) factory(*config.Config, string) pipeline.Services {
	return pipeline.Services{Audio: f, Transcriber: f, Diarizer: f, Punctuator: f, Embedder: f}
}

func (f *fakeModels) NormalizeAudio(_ context.Context, _, dest string) error {
	testsupport.WriteWAV(f.t, dest, 16000, 4.0)
	return nil
}

func (f *fakeModels) TranscribeFile(_ context.Context, _, outputDir, _ string) (whisperx.TranscribeResult, error) {
	path := filepath.Join(outputDir, "audio.json")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return whisperx.TranscribeResult{}, err
	}
	return whisperx.TranscribeResult{JSONPath: path}, os.WriteFile(path, []byte(f.words), 0o644)
}

func (f *fakeModels) Diarize(_ context.Context, _, rttmPath, _ string) (int, error) {
	return 2, os.WriteFile(rttmPath, []byte(f.rttm), 0o644)
}

func (f *fakeModels) Punctuate(_ context.Context, words []string) ([]string, error) {
	labels := make([]string, len(words))
	for i := range labels {
		labels[i] = "0"
	}
	return labels, nil
}

func (f *fakeModels) Embed(context.Context, string) ([]float32, error) {
	if f.vector == nil {
		return nil, errors.New("no embedding")
	}
	return f.vector, nil
}
