package speechmodels

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"speakerline/internal/services"
)

//go:embed script.py
var helperScript []byte

// ScriptName is the file the helper is written to inside the work directory.
const ScriptName = "speechmodels.py"

const (
	uvxCommand   = "uvx"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL = "https://pypi.org/simple"
)

var (
	pyannotePackages    = []string{"pyannote.audio", "numpy", "torchaudio", "soundfile", "omegaconf"}
	punctuationPackages = []string{"deepmultilingualpunctuation"}
)

// Config captures runtime settings for the helper.
type Config struct {
	CUDAEnabled bool
	HFToken     string
	// NumSpeakers pins the diarization speaker count; 0 infers it.
	NumSpeakers int
}

// CommandRunner executes name with args and returns its stdout. Failures
// return the captured stderr alongside the error.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) (stdout, stderr []byte, err error)

// Runner invokes the embedded helper script.
type Runner struct {
	cfg           Config
	workDir       string
	commandRunner CommandRunner

	scriptOnce sync.Once
	scriptPath string
	scriptErr  error
}

// NewRunner creates a runner that stages its script under workDir.
func NewRunner(cfg Config, workDir string) *Runner {
	return &Runner{cfg: cfg, workDir: workDir}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Runner) WithCommandRunner(runner CommandRunner) {
	r.commandRunner = runner
}

func (r *Runner) ensureScript() (string, error) {
	r.scriptOnce.Do(func() {
		if err := os.MkdirAll(r.workDir, 0o755); err != nil {
			r.scriptErr = fmt.Errorf("ensure work dir: %w", err)
			return
		}
		path := filepath.Join(r.workDir, ScriptName)
		if err := os.WriteFile(path, helperScript, 0o644); err != nil {
			r.scriptErr = fmt.Errorf("write helper script: %w", err)
			return
		}
		r.scriptPath = path
	})
	return r.scriptPath, r.scriptErr
}

func (r *Runner) requireToken(op string) error {
	if strings.TrimSpace(r.cfg.HFToken) == "" {
		return services.Wrap(services.ErrConfiguration, "speechmodels", op,
			"a Hugging Face token is required (set transcription.hf_token or HF_TOKEN)", nil)
	}
	return nil
}

func (r *Runner) buildArgs(packages []string, script, subcommand string, extra ...string) []string {
	args := []string{"--quiet"}
	for _, pkg := range packages {
		args = append(args, "--with", pkg)
	}
	if r.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", cudaIndexURL,
			"--extra-index-url", pypiIndexURL,
		)
	}
	args = append(args, "python", script, subcommand)
	return append(args, extra...)
}

// invoke runs one helper subcommand and decodes its stdout JSON into out.
func (r *Runner) invoke(ctx context.Context, op string, packages []string, out any, extra ...string) error {
	script, err := r.ensureScript()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "speechmodels", op, "stage helper", err)
	}
	args := r.buildArgs(packages, script, op, extra...)

	env := os.Environ()
	if token := strings.TrimSpace(r.cfg.HFToken); token != "" {
		env = append(env, "HF_TOKEN="+token)
	}
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	runner := r.commandRunner
	if runner == nil {
		runner = execRunner
	}
	stdout, stderr, err := runner(ctx, env, uvxCommand, args...)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "speechmodels", op, helperFailure(stderr), err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(stdout), out); err != nil {
		return services.Wrap(services.ErrExternalTool, "speechmodels", op, "parse helper output", err)
	}
	return nil
}

func execRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = env
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// helperFailure extracts a readable message from helper stderr.
func helperFailure(stderr []byte) string {
	text := strings.TrimSpace(string(stderr))
	if strings.Contains(text, "GatedRepoError") || strings.Contains(text, "401") {
		return "Hugging Face model access denied; accept the terms for pyannote/speaker-diarization-3.1 and pyannote/embedding, then retry"
	}
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal([]byte(line), &payload) == nil && payload.Error != "" {
			return payload.Error
		}
		if idx := strings.LastIndex(line, "Error:"); idx != -1 {
			return strings.TrimSpace(line[idx:])
		}
		return line
	}
	return "helper failed without output"
}

// ErrNoEmbedding reports an empty vector from the embedding model.
var ErrNoEmbedding = errors.New("empty embedding")
